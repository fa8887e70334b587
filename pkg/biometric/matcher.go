// Package biometric verifies and identifies faces by comparing descriptors against enrolled
// references, and drives the multi-capture enrollment of those references.
package biometric

import (
	"errors"
	"fmt"
	"math"

	"StudySanctuary/internal/entity"
	"gonum.org/v1/gonum/floats"
)

// DefaultMatchThreshold is the Euclidean distance under which two descriptors are the same person.
const DefaultMatchThreshold = 0.5

var ErrInvalidMatchThreshold = errors.New("invalid match threshold")

type Matcher struct {
	threshold float64
}

func NewMatcher(threshold float64) (*Matcher, error) {
	if err := validThreshold(threshold); err != nil {
		return nil, err
	}
	return &Matcher{threshold: threshold}, nil
}

func validThreshold(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidMatchThreshold, t)
	}
	return nil
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Distance is the Euclidean distance between two descriptors, or +Inf when their lengths differ
// or both are empty, so an empty reference never matches.
func Distance(a, b entity.FaceDescriptor) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	return floats.Distance(a, b, 2)
}

// Compare reports whether a and b are closer than the matcher threshold.
func (m *Matcher) Compare(a, b entity.FaceDescriptor) bool {
	return Distance(a, b) < m.threshold
}

// CompareWithThreshold is Compare with an explicit threshold. A non-positive threshold never matches.
func CompareWithThreshold(a, b entity.FaceDescriptor, threshold float64) bool {
	return Distance(a, b) < threshold
}

// NearestMatch scans the enrolled set once and returns the closest reference under the threshold.
// On equal distances the earlier reference wins.
func (m *Matcher) NearestMatch(query entity.FaceDescriptor, enrolled []entity.EnrolledDescriptor) entity.MatchResult {
	return nearest(query, enrolled, m.threshold)
}

// NearestMatchWithThreshold is NearestMatch with an explicit threshold.
func NearestMatchWithThreshold(query entity.FaceDescriptor, enrolled []entity.EnrolledDescriptor, threshold float64) entity.MatchResult {
	return nearest(query, enrolled, threshold)
}

func nearest(query entity.FaceDescriptor, enrolled []entity.EnrolledDescriptor, threshold float64) entity.MatchResult {
	best := entity.NoMatch()

	for i := range enrolled {
		d := Distance(query, enrolled[i].Descriptor)
		if d < threshold && d < best.Distance {
			best = entity.MatchResult{
				Matched:  true,
				Label:    enrolled[i].Label,
				UserID:   enrolled[i].UserID,
				Distance: d,
			}
		}
	}

	return best
}
