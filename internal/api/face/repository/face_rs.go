package faceRepository

import (
	"database/sql"
	"time"

	"StudySanctuary/internal/api/face"
	"StudySanctuary/internal/entity"
	contextPkg "StudySanctuary/pkg/context"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type FaceDescriptorDB struct {
	ID         sql.NullString  `db:"id"`
	UserID     sql.NullString  `db:"user_id"`
	Label      sql.NullString  `db:"label"`
	Descriptor pq.Float64Array `db:"descriptor"`
	CreatedAt  sql.NullTime    `db:"created_at"`
}

func (d FaceDescriptorDB) toEntity() entity.EnrolledDescriptor {
	return entity.EnrolledDescriptor{
		ID:         d.ID.String,
		UserID:     d.UserID.String,
		Label:      d.Label.String,
		Descriptor: entity.FaceDescriptor(d.Descriptor),
		CreatedAt:  d.CreatedAt.Time,
	}
}

func (r *faceRepository) LoadEnrolled(c context.Context, userID string) ([]entity.EnrolledDescriptor, error) {
	return r.selectDescriptors(c, "LoadEnrolled", queryGetByUserID, map[string]interface{}{
		"user_id": userID,
	})
}

func (r *faceRepository) LoadAll(c context.Context) ([]entity.EnrolledDescriptor, error) {
	return r.selectDescriptors(c, "LoadAll", queryGetAll, map[string]interface{}{})
}

func (r *faceRepository) selectDescriptors(c context.Context, op string, namedQuery string, argsKV map[string]interface{}) ([]entity.EnrolledDescriptor, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	rows, err := r.q.QueryxContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " query err")
		return nil, err
	}
	defer rows.Close()

	var out []entity.EnrolledDescriptor
	for rows.Next() {
		var row FaceDescriptorDB
		if err := rows.StructScan(&row); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error(op + " scan err")
			return nil, err
		}

		enrolled := row.toEntity()
		if err := enrolled.Descriptor.Validate(); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         enrolled.ID,
				"error":      err.Error(),
			}).Warn(op + " skipping malformed descriptor row")
			continue
		}
		out = append(out, enrolled)
	}

	if err := rows.Err(); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " rows err")
		return nil, err
	}

	return out, nil
}

func (r *faceRepository) AppendEnrolled(c context.Context, userID string, label string, descriptors []entity.FaceDescriptor) ([]entity.EnrolledDescriptor, error) {
	requestID := contextPkg.GetRequestID(c)
	now := time.Now()

	stored := make([]entity.EnrolledDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, face.ErrInvalidDescriptor
		}

		id, err := r.utils.NewULIDFromTimestamp(now)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to generate descriptor id")
			return nil, err
		}

		argsKV := map[string]interface{}{
			"id":         id,
			"user_id":    userID,
			"label":      label,
			"descriptor": pq.Float64Array(d),
			"created_at": now,
		}

		query, args, err := sqlx.Named(queryInsertDescriptor, argsKV)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to build SQL query for AppendEnrolled")
			return nil, err
		}
		query = r.q.Rebind(query)

		if _, err := r.q.ExecContext(c, query, args...); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    userID,
				"error":      err.Error(),
			}).Error("Database error when appending face descriptor")
			return nil, err
		}

		stored = append(stored, entity.EnrolledDescriptor{
			ID:         id,
			UserID:     userID,
			Label:      label,
			Descriptor: d.Clone(),
			CreatedAt:  now,
		})
	}

	return stored, nil
}

func (r *faceRepository) CountEnrolled(c context.Context, userID string) (int, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryCountByUserID, map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountEnrolled named query preparation err")
		return 0, err
	}
	query = r.q.Rebind(query)

	var count int
	if err := r.q.QueryRowxContext(c, query, args...).Scan(&count); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountEnrolled query err")
		return 0, err
	}

	return count, nil
}
