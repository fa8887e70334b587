package face

import (
	"math"
	"time"

	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/biometric"
)

type CompareRequest struct {
	A         []float64 `json:"a" validate:"required,len=128"`
	B         []float64 `json:"b" validate:"required,len=128"`
	Threshold *float64  `json:"threshold,omitempty" validate:"omitempty,gt=0"`
}

type CompareResponse struct {
	Match     bool     `json:"match"`
	Distance  *float64 `json:"distance"`
	Threshold float64  `json:"threshold"`
}

type MatchRequest struct {
	Descriptor []float64 `json:"descriptor" validate:"required,len=128"`
	UserID     string    `json:"user_id,omitempty"`
	Threshold  *float64  `json:"threshold,omitempty" validate:"omitempty,gt=0"`
}

// MatchResponse is entity.MatchResult with the +Inf distance of a miss encoded as null.
type MatchResponse struct {
	Matched  bool     `json:"matched"`
	Label    string   `json:"label"`
	UserID   string   `json:"user_id,omitempty"`
	Distance *float64 `json:"distance"`
}

func NewMatchResponse(r entity.MatchResult) MatchResponse {
	return MatchResponse{
		Matched:  r.Matched,
		Label:    r.Label,
		UserID:   r.UserID,
		Distance: FiniteOrNil(r.Distance),
	}
}

func FiniteOrNil(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

type LoginRequest struct {
	Descriptor []float64 `json:"descriptor" validate:"required,len=128"`
}

type LoginResponse struct {
	AccessToken      string  `json:"access_token"`
	ExpiresInMinutes float64 `json:"expires_in_minutes"`
	UserID           string  `json:"user_id"`
	Label            string  `json:"label"`
	Distance         float64 `json:"distance"`
}

type StartEnrollmentRequest struct {
	Label string `json:"label,omitempty" validate:"omitempty,max=100"`
}

type CaptureRequest struct {
	Descriptor  []float64 `json:"descriptor,omitempty" validate:"omitempty,len=128"`
	ImageBase64 string    `json:"image_base64,omitempty"`
	NoFace      bool      `json:"no_face,omitempty"`
}

// CaptureInput is a CaptureRequest after the handler resolved uploads.
type CaptureInput struct {
	Descriptor entity.FaceDescriptor
	Image      []byte
	NoFace     bool
}

type EnrollmentResponse struct {
	ID        string                    `json:"id"`
	UserID    string                    `json:"user_id"`
	Label     string                    `json:"label"`
	State     biometric.EnrollmentState `json:"state"`
	Captured  int                       `json:"captured"`
	Required  int                       `json:"required"`
	Message   string                    `json:"message"`
	Persisted bool                      `json:"persisted"`
	CreatedAt time.Time                 `json:"created_at"`
}
