package faceRepository

import (
	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/utils"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func New(db *sqlx.DB, log *logrus.Logger, utils utils.IUtils) Repository {
	return &repository{
		DB:    db,
		log:   log,
		utils: utils,
	}
}

type repository struct {
	DB    *sqlx.DB
	log   *logrus.Logger
	utils utils.IUtils
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var db sqlx.ExtContext
	var commitFunc, rollbackFunc func() error

	db = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		db = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Faces:    &faceRepository{q: db, log: r.log, utils: r.utils},
		Commit:   commitFunc,
		Rollback: rollbackFunc,
	}, nil
}

type FaceStore interface {
	LoadEnrolled(ctx context.Context, userID string) ([]entity.EnrolledDescriptor, error)
	LoadAll(ctx context.Context) ([]entity.EnrolledDescriptor, error)
	AppendEnrolled(ctx context.Context, userID string, label string, descriptors []entity.FaceDescriptor) ([]entity.EnrolledDescriptor, error)
	CountEnrolled(ctx context.Context, userID string) (int, error)
}

type Client struct {
	Faces FaceStore

	Commit   func() error
	Rollback func() error
}

type faceRepository struct {
	q     sqlx.ExtContext
	log   *logrus.Logger
	utils utils.IUtils
}
