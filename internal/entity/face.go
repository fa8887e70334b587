package entity

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DescriptorSize is the length of a face recognition embedding.
const DescriptorSize = 128

var ErrInvalidDescriptor = errors.New("invalid face descriptor")

type FaceDescriptor []float64

func (d FaceDescriptor) Validate() error {
	if len(d) != DescriptorSize {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidDescriptor, len(d), DescriptorSize)
	}
	for i, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: component %d is not finite", ErrInvalidDescriptor, i)
		}
	}
	return nil
}

// Clone returns a copy that does not alias the receiver.
func (d FaceDescriptor) Clone() FaceDescriptor {
	if d == nil {
		return nil
	}
	out := make(FaceDescriptor, len(d))
	copy(out, d)
	return out
}

type EnrolledDescriptor struct {
	ID         string         `db:"id" json:"id"`
	UserID     string         `db:"user_id" json:"user_id"`
	Label      string         `db:"label" json:"label"`
	Descriptor FaceDescriptor `db:"descriptor" json:"descriptor"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// MatchResult carries Distance = +Inf when nothing matched, so it must not be encoded directly to JSON.
type MatchResult struct {
	Matched  bool
	Label    string
	UserID   string
	Distance float64
}

func NoMatch() MatchResult {
	return MatchResult{Distance: math.Inf(1)}
}
