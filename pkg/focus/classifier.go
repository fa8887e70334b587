package focus

import (
	"math"

	"StudySanctuary/internal/entity"
)

const (
	streakBonusAfter = 10
	streakBonus      = 5
	streakPenalty    = 2

	framingBonus     = 3
	framingMinHeight = 0.25
	framingMaxHeight = 0.65
)

// Verdict is what a matching rule decides about a frame before post-adjustments.
type Verdict struct {
	Direction   entity.Direction
	Distraction entity.Distraction
	Score       float64
}

// Rule is one step of the ordered classification. Evaluate reports false when the rule does not apply.
type Rule struct {
	Name     string
	Evaluate func(t Thresholds, gaze entity.GazeVector, geo entity.Geometry) (Verdict, bool)
}

var PhoneRule = Rule{
	Name: "phone",
	Evaluate: func(t Thresholds, gaze entity.GazeVector, _ entity.Geometry) (Verdict, bool) {
		if gaze.Y <= t.Phone {
			return Verdict{}, false
		}
		return Verdict{
			Direction:   entity.DirectionDown,
			Distraction: entity.DistractionLookingDownPhone,
			Score:       math.Max(15, 100-(gaze.Y-t.Phone)*600),
		}, true
	},
}

var ExtremeRule = Rule{
	Name: "extreme",
	Evaluate: func(t Thresholds, gaze entity.GazeVector, _ entity.Geometry) (Verdict, bool) {
		ax := math.Abs(gaze.X)
		if ax <= t.Extreme {
			return Verdict{}, false
		}
		dir, distraction := horizontal(gaze.X)
		return Verdict{
			Direction:   dir,
			Distraction: distraction,
			Score:       math.Max(20, 100-(ax-t.Extreme)*700),
		}, true
	},
}

var HorizontalRule = Rule{
	Name: "horizontal",
	Evaluate: func(t Thresholds, gaze entity.GazeVector, _ entity.Geometry) (Verdict, bool) {
		ax := math.Abs(gaze.X)
		if ax <= t.Horizontal {
			return Verdict{}, false
		}
		dir, distraction := horizontal(gaze.X)
		if ax <= 1.5*t.Horizontal {
			distraction = entity.DistractionNone
		}
		return Verdict{
			Direction:   dir,
			Distraction: distraction,
			Score:       math.Max(50, 100-(ax-t.Horizontal)*400),
		}, true
	},
}

var VerticalRule = Rule{
	Name: "vertical",
	Evaluate: func(t Thresholds, gaze entity.GazeVector, _ entity.Geometry) (Verdict, bool) {
		ay := math.Abs(gaze.Y)
		if ay <= t.Vertical {
			return Verdict{}, false
		}
		v := Verdict{
			Direction:   entity.DirectionDown,
			Distraction: entity.DistractionLookingDown,
			Score:       math.Max(55, 100-(ay-t.Vertical)*350),
		}
		if gaze.Y < 0 {
			v.Direction = entity.DirectionUp
			v.Distraction = entity.DistractionLookingUp
		}
		if ay <= 1.4*t.Vertical {
			v.Distraction = entity.DistractionNone
		}
		return v, true
	},
}

var TiltRule = Rule{
	Name: "tilt",
	Evaluate: func(t Thresholds, _ entity.GazeVector, geo entity.Geometry) (Verdict, bool) {
		if geo.VerticalAlignment <= t.Tilt {
			return Verdict{}, false
		}
		v := Verdict{
			Direction: entity.DirectionTilted,
			Score:     math.Max(65, 100-geo.VerticalAlignment*400),
		}
		if geo.VerticalAlignment > 1.5*t.Tilt {
			v.Distraction = entity.DistractionHeadTilted
		}
		return v, true
	},
}

var CenterRule = Rule{
	Name: "center",
	Evaluate: func(Thresholds, entity.GazeVector, entity.Geometry) (Verdict, bool) {
		return Verdict{Direction: entity.DirectionCenter, Score: 100}, true
	},
}

func horizontal(x float64) (entity.Direction, entity.Distraction) {
	if x > 0 {
		return entity.DirectionRight, entity.DistractionLookingAwayRight
	}
	return entity.DirectionLeft, entity.DistractionLookingAwayLeft
}

// DefaultRules returns the classification order. The first rule that applies wins.
func DefaultRules() []Rule {
	return []Rule{PhoneRule, ExtremeRule, HorizontalRule, VerticalRule, TiltRule, CenterRule}
}

type Classifier struct {
	thresholds Thresholds
	rules      []Rule
}

func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{thresholds: t, rules: DefaultRules()}, nil
}

func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify maps one frame to a sample and returns the stability streak to carry into the next frame.
func (c *Classifier) Classify(gaze entity.GazeVector, geo entity.Geometry, streak int) (entity.FocusSample, int) {
	verdict := Verdict{Direction: entity.DirectionCenter, Score: 100}
	for _, r := range c.rules {
		if v, ok := r.Evaluate(c.thresholds, gaze, geo); ok {
			verdict = v
			break
		}
	}

	score := verdict.Score
	if verdict.Direction == entity.DirectionCenter {
		streak++
		if streak > streakBonusAfter {
			score = math.Min(100, score+streakBonus)
		}
	} else {
		streak = max(0, streak-streakPenalty)
	}

	if geo.FaceHeight >= framingMinHeight && geo.FaceHeight <= framingMaxHeight {
		score = math.Min(100, score+framingBonus)
	}

	return entity.FocusSample{
		Direction:   verdict.Direction,
		RawScore:    clampScore(int(math.Round(score))),
		Distraction: verdict.Distraction,
	}, streak
}

// NoFace is the sample for a frame without a detected face. It bypasses the rules and resets the streak.
func (c *Classifier) NoFace() (entity.FocusSample, int) {
	return entity.FocusSample{
		Direction:   entity.DirectionUnknown,
		RawScore:    0,
		Distraction: entity.DistractionFaceNotDetected,
	}, 0
}

func clampScore(s int) int {
	return min(100, max(0, s))
}
