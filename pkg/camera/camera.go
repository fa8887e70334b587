// Package camera describes the capture device that feeds the focus and enrollment pipelines.
package camera

import (
	"errors"
	"fmt"

	"StudySanctuary/internal/entity"
	"golang.org/x/net/context"
)

var ErrUnavailable = errors.New("camera unavailable")

type Constraints struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FacingMode string `json:"facing_mode"`
}

func DefaultConstraints() Constraints {
	return Constraints{
		Width:      640,
		Height:     480,
		FacingMode: "user",
	}
}

// Stream is an opened capture. Both methods return nil with a nil error when no face is visible.
type Stream interface {
	// Landmarks runs the landmark model on one frame.
	Landmarks(ctx context.Context, frame []byte) (*entity.LandmarkSet, error)

	// Descriptor runs the embedding model on one frame.
	Descriptor(ctx context.Context, frame []byte) (entity.FaceDescriptor, error)
}

// Device hands out streams. Every successful Start must be paired with a Stop.
type Device interface {
	Start(ctx context.Context, c Constraints) (Stream, error)
	Stop(s Stream) error
}

// Use opens a stream, runs fn and stops the stream on every exit path. A nil device is
// reported as ErrUnavailable.
func Use(ctx context.Context, dev Device, c Constraints, fn func(Stream) error) (err error) {
	if dev == nil {
		return fmt.Errorf("%w: no detector configured", ErrUnavailable)
	}

	stream, err := dev.Start(ctx, c)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	defer func() {
		if stopErr := dev.Stop(stream); stopErr != nil && err == nil {
			err = fmt.Errorf("stop camera stream: %w", stopErr)
		}
	}()

	return fn(stream)
}
