// Package focus turns per-frame face landmarks into a smoothed attention score.
//
// The pipeline for one frame is Estimate -> Classifier.Classify -> ScoreBuffer.Push. All of it
// is deterministic given the explicit state carried by a Session.
package focus

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidThreshold = errors.New("invalid focus threshold")

// Thresholds are the gaze deviations at which a frame stops counting as centered.
type Thresholds struct {
	Horizontal float64 `json:"horizontal"`
	Vertical   float64 `json:"vertical"`
	Tilt       float64 `json:"tilt"`
	Phone      float64 `json:"phone"`
	Extreme    float64 `json:"extreme"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Horizontal: 0.045,
		Vertical:   0.055,
		Tilt:       0.06,
		Phone:      0.095,
		Extreme:    0.12,
	}
}

func (t Thresholds) Validate() error {
	values := []struct {
		name  string
		value float64
	}{
		{"horizontal", t.Horizontal},
		{"vertical", t.Vertical},
		{"tilt", t.Tilt},
		{"phone", t.Phone},
		{"extreme", t.Extreme},
	}

	for _, v := range values {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) || v.value <= 0 {
			return fmt.Errorf("%w: %s must be a positive number, got %v", ErrInvalidThreshold, v.name, v.value)
		}
	}

	if t.Horizontal > t.Extreme {
		return fmt.Errorf("%w: horizontal (%v) exceeds extreme (%v)", ErrInvalidThreshold, t.Horizontal, t.Extreme)
	}

	return nil
}
