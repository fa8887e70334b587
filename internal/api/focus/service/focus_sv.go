package focusService

import (
	"errors"
	"fmt"
	"time"

	"StudySanctuary/internal/api/focus"
	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/camera"
	contextPkg "StudySanctuary/pkg/context"
	focusPkg "StudySanctuary/pkg/focus"
	"StudySanctuary/pkg/redis"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *focusService) StartSession(ctx context.Context, userID string) (*LiveSession, error) {
	requestID := contextPkg.GetRequestID(ctx)
	now := time.Now()

	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate focus session id")
		return nil, err
	}

	live := newLiveSession(id, userID, now, s.classifier)

	s.mu.Lock()
	s.sessions[id] = live
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": id,
		"user_id":    userID,
	}).Info("Focus session started")

	return live, nil
}

// Process scores one frame of landmarks; a nil set is a frame without a face. ok is false when
// the frame was dropped because another one was still being processed.
func (s *focusService) Process(_ context.Context, live *LiveSession, landmarks *entity.LandmarkSet) (entity.FocusFrame, bool) {
	frame, ok := live.session.TryProcess(landmarks)
	live.record(frame, ok)
	return frame, ok
}

// ProcessFrame runs a raw camera frame through the session's detector stream.
func (s *focusService) ProcessFrame(ctx context.Context, live *LiveSession, frame []byte) (entity.FocusFrame, bool, error) {
	stream, err := s.streamFor(ctx, live)
	if err != nil {
		return entity.FocusFrame{}, false, err
	}

	result, ok, err := live.session.TryProcessFrom(ctx, func(ctx context.Context) (*entity.LandmarkSet, error) {
		return stream.Landmarks(ctx, frame)
	})
	if err != nil {
		return entity.FocusFrame{}, false, fmt.Errorf("detect landmarks: %w", err)
	}

	live.record(result, ok)
	return result, ok, nil
}

func (s *focusService) streamFor(ctx context.Context, live *LiveSession) (camera.Stream, error) {
	live.streamMu.Lock()
	defer live.streamMu.Unlock()

	if live.stream != nil {
		return live.stream, nil
	}
	if s.device == nil {
		return nil, fmt.Errorf("%w: no detector configured", camera.ErrUnavailable)
	}

	stream, err := s.device.Start(ctx, camera.DefaultConstraints())
	if err != nil {
		if errors.Is(err, camera.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", camera.ErrUnavailable, err)
	}

	live.stream = stream
	return stream, nil
}

// StopSession clears the focus state, releases the detector stream and stores the summary.
func (s *focusService) StopSession(ctx context.Context, live *LiveSession) (entity.FocusSessionSummary, error) {
	requestID := contextPkg.GetRequestID(ctx)

	s.mu.Lock()
	delete(s.sessions, live.ID)
	s.mu.Unlock()

	live.session.Stop()

	live.streamMu.Lock()
	if live.stream != nil {
		if err := s.device.Stop(live.stream); err != nil {
			logrus.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": live.ID,
				"error":      err.Error(),
			}).Warn("Failed to stop detector stream")
		}
		live.stream = nil
	}
	live.streamMu.Unlock()

	summary := live.Summary()
	stoppedAt := time.Now()
	summary.Active = false
	summary.StoppedAt = &stoppedAt

	logrus.WithFields(logrus.Fields{
		"request_id":    requestID,
		"session_id":    live.ID,
		"frames":        summary.Frames,
		"dropped":       summary.DroppedFrames,
		"average_score": summary.AverageScore,
	}).Info("Focus session stopped")

	if err := s.redisServer.SetFocusSummary(ctx, summary, s.summaryTTL); err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": live.ID,
			"error":      err.Error(),
		}).Error("Failed to store focus session summary")
		return summary, err
	}

	return summary, nil
}

func (s *focusService) GetSession(ctx context.Context, id string) (entity.FocusSessionSummary, error) {
	s.mu.Lock()
	live, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return live.Summary(), nil
	}

	summary, err := s.redisServer.GetFocusSummary(ctx, id)
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return entity.FocusSessionSummary{}, focus.ErrSessionNotFound
		}
		logrus.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": id,
			"error":      err.Error(),
		}).Error("Failed to read focus session summary")
		return entity.FocusSessionSummary{}, err
	}

	return summary, nil
}

// Evaluate scores a single frame from a fresh state: zero gaze prior and no streak.
func (s *focusService) Evaluate(_ context.Context, msg focus.LandmarkMessage) (focus.EvaluateResponse, error) {
	landmarks, err := msg.LandmarkSet()
	if err != nil {
		return focus.EvaluateResponse{}, err
	}

	session := focusPkg.NewSession(s.classifier)
	res := focus.EvaluateResponse{
		Frame: session.Process(landmarks),
		Gaze:  session.Gaze(),
	}
	if landmarks != nil {
		_, res.Geometry = focusPkg.Estimate(*landmarks, entity.GazeVector{})
	}

	return res, nil
}
