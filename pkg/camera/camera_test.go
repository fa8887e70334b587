package camera

import (
	"errors"
	"testing"

	"StudySanctuary/internal/entity"
	"golang.org/x/net/context"
)

type fakeStream struct{}

func (fakeStream) Landmarks(context.Context, []byte) (*entity.LandmarkSet, error) { return nil, nil }

func (fakeStream) Descriptor(context.Context, []byte) (entity.FaceDescriptor, error) {
	return nil, nil
}

type fakeDevice struct {
	startErr error
	stopErr  error
	started  int
	stopped  int
	got      Constraints
}

func (d *fakeDevice) Start(_ context.Context, c Constraints) (Stream, error) {
	if d.startErr != nil {
		return nil, d.startErr
	}
	d.started++
	d.got = c
	return fakeStream{}, nil
}

func (d *fakeDevice) Stop(Stream) error {
	d.stopped++
	return d.stopErr
}

func TestUse(t *testing.T) {
	fnErr := errors.New("consumer failed")

	tests := []struct {
		name        string
		dev         *fakeDevice
		fn          func(Stream) error
		wantErr     error
		wantStopped int
	}{
		{
			name:        "stream stopped after success",
			dev:         &fakeDevice{},
			fn:          func(Stream) error { return nil },
			wantStopped: 1,
		},
		{
			name:        "stream stopped after consumer error",
			dev:         &fakeDevice{},
			fn:          func(Stream) error { return fnErr },
			wantErr:     fnErr,
			wantStopped: 1,
		},
		{
			name:    "start failure is unavailable",
			dev:     &fakeDevice{startErr: errors.New("permission denied")},
			fn:      func(Stream) error { t.Fatal("fn must not run"); return nil },
			wantErr: ErrUnavailable,
		},
		{
			name:        "stop failure surfaces",
			dev:         &fakeDevice{stopErr: errors.New("device busy")},
			fn:          func(Stream) error { return nil },
			wantErr:     nil,
			wantStopped: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Use(context.Background(), tc.dev, DefaultConstraints(), tc.fn)
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
			if tc.dev.stopErr != nil && err == nil {
				t.Error("expected the stop error to be returned")
			}
			if tc.dev.stopped != tc.wantStopped {
				t.Errorf("stopped: got %d, want %d", tc.dev.stopped, tc.wantStopped)
			}
			if tc.dev.started != tc.dev.stopped {
				t.Errorf("unbalanced start/stop: %d/%d", tc.dev.started, tc.dev.stopped)
			}
		})
	}
}

func TestUse_NilDevice(t *testing.T) {
	var dev Device
	err := Use(context.Background(), dev, DefaultConstraints(), func(Stream) error {
		t.Fatal("fn must not run")
		return nil
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}

func TestDefaultConstraints(t *testing.T) {
	c := DefaultConstraints()
	if c.Width != 640 || c.Height != 480 || c.FacingMode != "user" {
		t.Errorf("got %+v", c)
	}
}
