package faceRepository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"StudySanctuary/internal/api/face"
	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/utils"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func TestFaceDescriptorDB_ToEntity(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	values := make([]float64, entity.DescriptorSize)
	values[0] = 0.25

	tests := []struct {
		name string
		row  FaceDescriptorDB
		want entity.EnrolledDescriptor
	}{
		{
			name: "all columns set",
			row: FaceDescriptorDB{
				ID:         sql.NullString{String: "01HV", Valid: true},
				UserID:     sql.NullString{String: "u1", Valid: true},
				Label:      sql.NullString{String: "alice", Valid: true},
				Descriptor: pq.Float64Array(values),
				CreatedAt:  sql.NullTime{Time: created, Valid: true},
			},
			want: entity.EnrolledDescriptor{
				ID:         "01HV",
				UserID:     "u1",
				Label:      "alice",
				Descriptor: values,
				CreatedAt:  created,
			},
		},
		{
			name: "null label becomes empty",
			row: FaceDescriptorDB{
				ID:         sql.NullString{String: "01HW", Valid: true},
				UserID:     sql.NullString{String: "u2", Valid: true},
				Descriptor: pq.Float64Array(values),
			},
			want: entity.EnrolledDescriptor{
				ID:         "01HW",
				UserID:     "u2",
				Descriptor: values,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.row.toEntity()
			if got.ID != tc.want.ID || got.UserID != tc.want.UserID || got.Label != tc.want.Label {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
			if !got.CreatedAt.Equal(tc.want.CreatedAt) {
				t.Errorf("created_at: got %v, want %v", got.CreatedAt, tc.want.CreatedAt)
			}
			if len(got.Descriptor) != len(tc.want.Descriptor) || got.Descriptor[0] != tc.want.Descriptor[0] {
				t.Errorf("descriptor mismatch")
			}
		})
	}
}

func TestFaceRepository_AppendEnrolledRejectsInvalid(t *testing.T) {
	r := &faceRepository{log: logrus.New(), utils: utils.New()}

	tests := []struct {
		name        string
		descriptors []entity.FaceDescriptor
	}{
		{"short descriptor", []entity.FaceDescriptor{make(entity.FaceDescriptor, 3)}},
		{"empty descriptor", []entity.FaceDescriptor{nil}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.AppendEnrolled(context.Background(), "u1", "alice", tc.descriptors)
			if !errors.Is(err, face.ErrInvalidDescriptor) {
				t.Errorf("got %v, want ErrInvalidDescriptor", err)
			}
		})
	}
}
