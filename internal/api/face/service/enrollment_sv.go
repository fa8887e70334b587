package faceService

import (
	"fmt"
	"sync"
	"time"

	"StudySanctuary/internal/api/face"
	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/biometric"
	"StudySanctuary/pkg/camera"
	contextPkg "StudySanctuary/pkg/context"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type enrollment struct {
	id        string
	userID    string
	label     string
	createdAt time.Time
	flow      *biometric.EnrollmentFlow

	mu        sync.Mutex
	completed []entity.FaceDescriptor
	persisted bool
}

func (e *enrollment) response() face.EnrollmentResponse {
	status := e.flow.Status()

	e.mu.Lock()
	persisted := e.persisted
	e.mu.Unlock()

	return face.EnrollmentResponse{
		ID:        e.id,
		UserID:    e.userID,
		Label:     e.label,
		State:     status.State,
		Captured:  status.Captured,
		Required:  status.Required,
		Message:   status.Message,
		Persisted: persisted,
		CreatedAt: e.createdAt,
	}
}

func (s *enrollmentDomainImpl) Start(ctx context.Context, user entity.UserLoginData, req face.StartEnrollmentRequest) (face.EnrollmentResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)
	now := s.now()

	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate enrollment id")
		return face.EnrollmentResponse{}, err
	}

	label := req.Label
	if label == "" {
		label = user.DisplayName()
	}

	e := &enrollment{
		id:        id,
		userID:    user.ID,
		label:     label,
		createdAt: now,
	}
	e.flow = biometric.NewEnrollmentFlow(s.cfg, func(set []entity.FaceDescriptor) {
		e.mu.Lock()
		e.completed = set
		e.mu.Unlock()
	})

	var evicted []*enrollment
	s.mu.Lock()
	for key, other := range s.enrollments {
		// a user has at most one open enrollment
		if other.userID == user.ID || now.Sub(other.createdAt) > s.ttl {
			other.flow.Cancel()
			delete(s.enrollments, key)
			evicted = append(evicted, other)
		}
	}
	s.enrollments[id] = e
	s.mu.Unlock()

	for _, other := range evicted {
		s.salvage(ctx, other)
	}

	logrus.WithFields(logrus.Fields{
		"request_id":    requestID,
		"enrollment_id": id,
		"user_id":       user.ID,
	}).Info("Enrollment started")

	return e.response(), nil
}

func (s *enrollmentDomainImpl) get(user entity.UserLoginData, id string) (*enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.enrollments[id]
	if !ok {
		return nil, face.ErrEnrollmentNotFound
	}
	if e.userID != user.ID {
		return nil, face.ErrEnrollmentForbidden
	}
	return e, nil
}

func (s *enrollmentDomainImpl) extractor(in face.CaptureInput) (biometric.Extractor, error) {
	switch {
	case in.NoFace:
		return func(context.Context) (entity.FaceDescriptor, error) {
			return nil, nil
		}, nil
	case in.Descriptor != nil:
		return func(context.Context) (entity.FaceDescriptor, error) {
			return in.Descriptor, nil
		}, nil
	case len(in.Image) > 0:
		return func(ctx context.Context) (entity.FaceDescriptor, error) {
			var descriptor entity.FaceDescriptor
			err := camera.Use(ctx, s.device, camera.DefaultConstraints(), func(stream camera.Stream) error {
				var err error
				descriptor, err = stream.Descriptor(ctx, in.Image)
				return err
			})
			return descriptor, err
		}, nil
	}
	return nil, face.ErrCaptureSource
}

func (s *enrollmentDomainImpl) Capture(ctx context.Context, user entity.UserLoginData, id string, in face.CaptureInput) (face.EnrollmentResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	e, err := s.get(user, id)
	if err != nil {
		return face.EnrollmentResponse{}, err
	}

	// a completed set whose write failed is retried instead of captured again
	if e.flow.Status().State == biometric.StateSuccess && !e.response().Persisted {
		if err := s.persist(ctx, e); err != nil {
			return face.EnrollmentResponse{}, err
		}
		return e.response(), nil
	}

	extract, err := s.extractor(in)
	if err != nil {
		return face.EnrollmentResponse{}, err
	}

	status, err := e.flow.Capture(ctx, extract)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id":    requestID,
			"enrollment_id": id,
			"error":         err.Error(),
		}).Warn("Enrollment capture failed")
		return face.EnrollmentResponse{}, err
	}

	if status.State == biometric.StateSuccess {
		if err := s.persist(ctx, e); err != nil {
			return face.EnrollmentResponse{}, err
		}
	}

	return e.response(), nil
}

// persist stores the completed set in one transaction and drops the cached sets it changes.
func (s *enrollmentDomainImpl) persist(ctx context.Context, e *enrollment) error {
	requestID := contextPkg.GetRequestID(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.persisted {
		return nil
	}

	repo, err := s.repo.NewClient(true)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}

	if _, err := repo.Faces.AppendEnrolled(ctx, e.userID, e.label, e.completed); err != nil {
		if rbErr := repo.Rollback(); rbErr != nil {
			logrus.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      rbErr.Error(),
			}).Error("Failed to rollback enrollment")
		}
		return fmt.Errorf("persist enrollment %s: %w", e.id, err)
	}

	if err := repo.Commit(); err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit enrollment")
		return fmt.Errorf("commit enrollment %s: %w", e.id, err)
	}

	e.persisted = true

	if err := s.redisServer.InvalidateEnrolled(ctx, e.userID); err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to invalidate enrolled cache")
	}

	logrus.WithFields(logrus.Fields{
		"request_id":    requestID,
		"enrollment_id": e.id,
		"user_id":       e.userID,
		"descriptors":   len(e.completed),
	}).Info("Enrollment persisted")

	return nil
}

// salvage writes a completed set that never reached the database before its enrollment is
// forgotten. A set that still cannot be written is logged as lost.
func (s *enrollmentDomainImpl) salvage(ctx context.Context, e *enrollment) {
	if e.flow.Status().State != biometric.StateSuccess || e.response().Persisted {
		return
	}

	if err := s.persist(ctx, e); err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id":    contextPkg.GetRequestID(ctx),
			"enrollment_id": e.id,
			"user_id":       e.userID,
			"descriptors":   e.flow.Status().Captured,
			"error":         err.Error(),
		}).Error("Discarding completed enrollment that was never persisted")
	}
}

func (s *enrollmentDomainImpl) Reset(ctx context.Context, user entity.UserLoginData, id string) (face.EnrollmentResponse, error) {
	e, err := s.get(user, id)
	if err != nil {
		return face.EnrollmentResponse{}, err
	}

	if err := e.flow.Reset(); err != nil {
		return face.EnrollmentResponse{}, err
	}

	return e.response(), nil
}

// Cancel aborts the flow and forgets it.
func (s *enrollmentDomainImpl) Cancel(ctx context.Context, user entity.UserLoginData, id string) (face.EnrollmentResponse, error) {
	e, err := s.get(user, id)
	if err != nil {
		return face.EnrollmentResponse{}, err
	}

	e.flow.Cancel()

	s.mu.Lock()
	delete(s.enrollments, id)
	s.mu.Unlock()

	s.salvage(ctx, e)

	logrus.WithFields(logrus.Fields{
		"request_id":    contextPkg.GetRequestID(ctx),
		"enrollment_id": id,
	}).Info("Enrollment cancelled")

	return e.response(), nil
}

func (s *enrollmentDomainImpl) Status(ctx context.Context, user entity.UserLoginData, id string) (face.EnrollmentResponse, error) {
	e, err := s.get(user, id)
	if err != nil {
		return face.EnrollmentResponse{}, err
	}
	return e.response(), nil
}
