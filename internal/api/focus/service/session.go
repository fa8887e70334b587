package focusService

import (
	"sync"
	"time"

	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/camera"
	focusPkg "StudySanctuary/pkg/focus"
)

// LiveSession is one monitoring socket: its focus state, its detector stream and running stats.
type LiveSession struct {
	ID        string
	UserID    string
	StartedAt time.Time

	session *focusPkg.Session

	streamMu sync.Mutex
	stream   camera.Stream

	mu            sync.Mutex
	frames        int
	dropped       int
	scoreSum      int
	longestStreak int
	distractions  map[entity.Distraction]int
	last          *entity.FocusFrame
}

func newLiveSession(id, userID string, startedAt time.Time, c *focusPkg.Classifier) *LiveSession {
	s := focusPkg.NewSession(c)
	s.Start()

	return &LiveSession{
		ID:           id,
		UserID:       userID,
		StartedAt:    startedAt,
		session:      s,
		distractions: make(map[entity.Distraction]int),
	}
}

func (l *LiveSession) record(frame entity.FocusFrame, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !ok {
		l.dropped++
		return
	}

	l.frames++
	l.scoreSum += frame.FocusScore
	l.longestStreak = max(l.longestStreak, frame.Streak)
	if frame.DistractionType != nil {
		l.distractions[*frame.DistractionType]++
	}
	last := frame
	l.last = &last
}

func (l *LiveSession) Summary() entity.FocusSessionSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	summary := entity.FocusSessionSummary{
		ID:            l.ID,
		UserID:        l.UserID,
		Active:        true,
		StartedAt:     l.StartedAt,
		Frames:        l.frames,
		DroppedFrames: l.dropped,
		LongestStreak: l.longestStreak,
		Distractions:  make(map[entity.Distraction]int, len(l.distractions)),
	}
	if l.frames > 0 {
		summary.AverageScore = float64(l.scoreSum) / float64(l.frames)
	}
	for k, v := range l.distractions {
		summary.Distractions[k] = v
	}
	if l.last != nil {
		last := *l.last
		summary.LastFrame = &last
	}

	return summary
}
