package entity

import "time"

type GazeVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Geometry struct {
	FaceHeight        float64 `json:"face_height"`
	VerticalAlignment float64 `json:"vertical_alignment"`
}

type Direction string

const (
	DirectionCenter  Direction = "center"
	DirectionLeft    Direction = "left"
	DirectionRight   Direction = "right"
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionTilted  Direction = "tilted"
	DirectionUnknown Direction = "unknown"
)

// Distraction explains a lowered score. The empty value means no distraction.
type Distraction string

const (
	DistractionNone             Distraction = ""
	DistractionLookingDownPhone Distraction = "looking_down_phone"
	DistractionLookingAwayLeft  Distraction = "looking_away_left"
	DistractionLookingAwayRight Distraction = "looking_away_right"
	DistractionLookingDown      Distraction = "looking_down"
	DistractionLookingUp        Distraction = "looking_up"
	DistractionHeadTilted       Distraction = "head_tilted"
	DistractionFaceNotDetected  Distraction = "face_not_detected"
)

type FocusSample struct {
	Direction   Direction   `json:"direction"`
	RawScore    int         `json:"raw_score"`
	Distraction Distraction `json:"distraction,omitempty"`
}

// FocusFrame is what a monitoring client receives for every processed frame.
type FocusFrame struct {
	IsFaceDetected  bool         `json:"is_face_detected"`
	Direction       Direction    `json:"direction"`
	FocusScore      int          `json:"focus_score"`
	DistractionType *Distraction `json:"distraction_type"`
	Streak          int          `json:"streak"`
}

type FocusSessionSummary struct {
	ID            string              `json:"id"`
	UserID        string              `json:"user_id"`
	Active        bool                `json:"active"`
	StartedAt     time.Time           `json:"started_at"`
	StoppedAt     *time.Time          `json:"stopped_at,omitempty"`
	Frames        int                 `json:"frames"`
	DroppedFrames int                 `json:"dropped_frames"`
	AverageScore  float64             `json:"average_score"`
	LongestStreak int                 `json:"longest_streak"`
	Distractions  map[Distraction]int `json:"distractions"`
	LastFrame     *FocusFrame         `json:"last_frame,omitempty"`
}
