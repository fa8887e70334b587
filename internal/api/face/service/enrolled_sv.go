package faceService

import (
	"errors"

	"StudySanctuary/internal/entity"
	contextPkg "StudySanctuary/pkg/context"
	"StudySanctuary/pkg/redis"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// load returns the enrolled set of one user, or of every user when userID is empty. Cache
// failures fall through to the database.
func (e *enrolledSource) load(ctx context.Context, userID string) ([]entity.EnrolledDescriptor, error) {
	requestID := contextPkg.GetRequestID(ctx)

	cached, err := e.redisServer.GetEnrolled(ctx, userID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to read enrolled descriptors from cache")
	}

	repo, err := e.repo.NewClient(false)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	var set []entity.EnrolledDescriptor
	if userID == "" {
		set, err = repo.Faces.LoadAll(ctx)
	} else {
		set, err = repo.Faces.LoadEnrolled(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	if err := e.redisServer.SetEnrolled(ctx, userID, set, e.ttl); err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to cache enrolled descriptors")
	}

	return set, nil
}
