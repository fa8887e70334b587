package focus

import (
	"fmt"

	"StudySanctuary/internal/entity"
)

// LandmarkMessage is the text payload of the monitoring socket and the body of an evaluation.
// Points holds [x, y] pairs; Face set to false or an empty point list means no face.
type LandmarkMessage struct {
	Points [][]float64 `json:"points" validate:"omitempty,dive,len=2"`
	Table  string      `json:"table,omitempty"`
	Face   *bool       `json:"face,omitempty"`
}

func (m LandmarkMessage) HasFace() bool {
	if m.Face != nil && !*m.Face {
		return false
	}
	return len(m.Points) > 0
}

// LandmarkSet resolves the message against its landmark index table. It returns nil when the
// message carries no face.
func (m LandmarkMessage) LandmarkSet() (*entity.LandmarkSet, error) {
	if !m.HasFace() {
		return nil, nil
	}

	points := make([]entity.Point, len(m.Points))
	for i, p := range m.Points {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: point %d has %d coordinates", ErrInvalidLandmarks, i, len(p))
		}
		points[i] = entity.Point{X: p[0], Y: p[1]}
	}

	table, err := entity.LookupLandmarkTable(m.Table, len(points))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLandmarks, err)
	}
	set, err := table.Resolve(points)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLandmarks, err)
	}

	return &set, nil
}

type EvaluateResponse struct {
	Frame    entity.FocusFrame `json:"frame"`
	Gaze     entity.GazeVector `json:"gaze"`
	Geometry entity.Geometry   `json:"geometry"`
}

type SocketError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
