package focus

import (
	"math"

	"StudySanctuary/internal/entity"
)

const (
	irisWeight     = 0.3
	priorWeight    = 0.6
	observedWeight = 0.4
)

type eye struct {
	center entity.Point
	width  float64
}

func measureEye(inner, outer entity.Point) eye {
	return eye{
		center: entity.Point{X: (inner.X + outer.X) / 2, Y: (inner.Y + outer.Y) / 2},
		width:  math.Abs(outer.X - inner.X),
	}
}

// irisOffset is the horizontal iris displacement in units of eye width.
func (e eye) irisOffset(iris entity.Point) float64 {
	if e.width == 0 {
		return 0
	}
	return (iris.X - e.center.X) / e.width
}

// Estimate derives the smoothed gaze vector and frame geometry from one landmark set.
// The returned gaze becomes the prior for the next frame of the same session; a new
// session starts from the zero vector.
func Estimate(l entity.LandmarkSet, prior entity.GazeVector) (entity.GazeVector, entity.Geometry) {
	left := measureEye(l[entity.LeftEyeInner], l[entity.LeftEyeOuter])
	right := measureEye(l[entity.RightEyeInner], l[entity.RightEyeOuter])

	iris := (left.irisOffset(l[entity.LeftIris]) + right.irisOffset(l[entity.RightIris])) / 2

	nose := l[entity.NoseTip]
	midX := (left.center.X + right.center.X) / 2
	midY := (left.center.Y + right.center.Y) / 2
	headX := nose.X - midX
	headY := nose.Y - midY

	raw := entity.GazeVector{
		X: headX + irisWeight*iris,
		Y: headY,
	}

	gaze := entity.GazeVector{
		X: prior.X*priorWeight + raw.X*observedWeight,
		Y: prior.Y*priorWeight + raw.Y*observedWeight,
	}

	geometry := entity.Geometry{
		FaceHeight:        math.Abs(l[entity.ForeheadCenter].Y - l[entity.Chin].Y),
		VerticalAlignment: math.Abs(nose.X - (left.center.X+right.center.X+nose.X)/3),
	}

	return gaze, geometry
}
