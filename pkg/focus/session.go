package focus

import (
	"context"
	"sync/atomic"

	"StudySanctuary/internal/entity"
)

// Session holds the per-monitoring state: the gaze prior, the score buffer and the stability streak.
// A Session must not be shared between monitoring sessions.
type Session struct {
	classifier *Classifier

	gaze   entity.GazeVector
	buffer ScoreBuffer
	streak int

	busy atomic.Bool
}

func NewSession(c *Classifier) *Session {
	return &Session{classifier: c}
}

// Start begins a monitoring session from a clean state.
func (s *Session) Start() {
	s.clear()
}

// Stop ends the monitoring session and clears all smoothing state, so nothing
// leaks into a later Start.
func (s *Session) Stop() {
	s.clear()
}

func (s *Session) clear() {
	s.gaze = entity.GazeVector{}
	s.buffer.Reset()
	s.streak = 0
}

// Process runs one classify/smooth pass. A nil landmark set means no face was detected.
func (s *Session) Process(landmarks *entity.LandmarkSet) entity.FocusFrame {
	var sample entity.FocusSample

	if landmarks == nil {
		sample, s.streak = s.classifier.NoFace()
	} else {
		var geo entity.Geometry
		s.gaze, geo = Estimate(*landmarks, s.gaze)
		sample, s.streak = s.classifier.Classify(s.gaze, geo, s.streak)
	}

	frame := entity.FocusFrame{
		IsFaceDetected: landmarks != nil,
		Direction:      sample.Direction,
		FocusScore:     s.buffer.Push(sample.RawScore),
		Streak:         s.streak,
	}
	if sample.Distraction != entity.DistractionNone {
		d := sample.Distraction
		frame.DistractionType = &d
	}

	return frame
}

// TryProcess is Process guarded so that only one pass runs at a time. A frame that arrives while
// another pass is in flight is dropped and ok is false.
func (s *Session) TryProcess(landmarks *entity.LandmarkSet) (frame entity.FocusFrame, ok bool) {
	if !s.busy.CompareAndSwap(false, true) {
		return entity.FocusFrame{}, false
	}
	defer s.busy.Store(false)

	return s.Process(landmarks), true
}

// TryProcessFrom is TryProcess for landmarks that still have to be produced, such as a remote
// detector call. The in-flight guard covers the source too. A source error leaves the session
// state untouched.
func (s *Session) TryProcessFrom(ctx context.Context, source func(context.Context) (*entity.LandmarkSet, error)) (entity.FocusFrame, bool, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return entity.FocusFrame{}, false, nil
	}
	defer s.busy.Store(false)

	landmarks, err := source(ctx)
	if err != nil {
		return entity.FocusFrame{}, true, err
	}

	return s.Process(landmarks), true, nil
}

func (s *Session) Streak() int {
	return s.streak
}

func (s *Session) Gaze() entity.GazeVector {
	return s.gaze
}

func (s *Session) BufferedScores() []int {
	return s.buffer.Scores()
}
