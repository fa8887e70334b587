package faceService

import (
	"errors"
	"sync"
	"time"

	faceRepository "StudySanctuary/internal/api/face/repository"
	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/camera"
	"StudySanctuary/pkg/redis"
	"golang.org/x/net/context"
)

func descriptor(fill float64) entity.FaceDescriptor {
	d := make(entity.FaceDescriptor, entity.DescriptorSize)
	for i := range d {
		d[i] = fill
	}
	return d
}

type fakeStore struct {
	mu        sync.Mutex
	rows      []entity.EnrolledDescriptor
	loads     int
	appendErr error
}

func (f *fakeStore) LoadEnrolled(_ context.Context, userID string) ([]entity.EnrolledDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	var out []entity.EnrolledDescriptor
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) LoadAll(context.Context) ([]entity.EnrolledDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return append([]entity.EnrolledDescriptor(nil), f.rows...), nil
}

func (f *fakeStore) AppendEnrolled(_ context.Context, userID string, label string, descriptors []entity.FaceDescriptor) ([]entity.EnrolledDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	var out []entity.EnrolledDescriptor
	for _, d := range descriptors {
		out = append(out, entity.EnrolledDescriptor{UserID: userID, Label: label, Descriptor: d})
	}
	f.rows = append(f.rows, out...)
	return out, nil
}

func (f *fakeStore) CountEnrolled(_ context.Context, userID string) (int, error) {
	set, _ := f.LoadEnrolled(nil, userID)
	return len(set), nil
}

type fakeRepo struct {
	store     *fakeStore
	commits   int
	rollbacks int
}

func (r *fakeRepo) NewClient(bool) (faceRepository.Client, error) {
	return faceRepository.Client{
		Faces:    r.store,
		Commit:   func() error { r.commits++; return nil },
		Rollback: func() error { r.rollbacks++; return nil },
	}, nil
}

type fakeRedis struct {
	mu          sync.Mutex
	enrolled    map[string][]entity.EnrolledDescriptor
	summaries   map[string]entity.FocusSessionSummary
	invalidated []string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		enrolled:  make(map[string][]entity.EnrolledDescriptor),
		summaries: make(map[string]entity.FocusSessionSummary),
	}
}

func (r *fakeRedis) SetEnrolled(_ context.Context, userID string, set []entity.EnrolledDescriptor, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enrolled[redis.EnrolledKey(userID)] = set
	return nil
}

func (r *fakeRedis) GetEnrolled(_ context.Context, userID string) ([]entity.EnrolledDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.enrolled[redis.EnrolledKey(userID)]
	if !ok {
		return nil, redis.ErrCacheMiss
	}
	return set, nil
}

func (r *fakeRedis) InvalidateEnrolled(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.enrolled, redis.EnrolledKey(userID))
	delete(r.enrolled, redis.EnrolledKey(""))
	r.invalidated = append(r.invalidated, userID)
	return nil
}

func (r *fakeRedis) SetFocusSummary(_ context.Context, s entity.FocusSessionSummary, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries[s.ID] = s
	return nil
}

func (r *fakeRedis) GetFocusSummary(_ context.Context, id string) (entity.FocusSessionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.summaries[id]
	if !ok {
		return entity.FocusSessionSummary{}, redis.ErrCacheMiss
	}
	return s, nil
}

func (r *fakeRedis) Close() error { return nil }

type fakeStream struct {
	descriptor entity.FaceDescriptor
	frames     [][]byte
}

func (s *fakeStream) Landmarks(context.Context, []byte) (*entity.LandmarkSet, error) {
	return nil, nil
}

func (s *fakeStream) Descriptor(_ context.Context, frame []byte) (entity.FaceDescriptor, error) {
	s.frames = append(s.frames, frame)
	return s.descriptor, nil
}

type fakeDevice struct {
	stream   *fakeStream
	startErr error
	started  int
	stopped  int
}

func (d *fakeDevice) Start(context.Context, camera.Constraints) (camera.Stream, error) {
	if d.startErr != nil {
		return nil, d.startErr
	}
	d.started++
	return d.stream, nil
}

func (d *fakeDevice) Stop(camera.Stream) error {
	d.stopped++
	return nil
}

var errDatabaseDown = errors.New("database down")
