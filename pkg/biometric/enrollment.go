package biometric

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"StudySanctuary/internal/entity"
)

type EnrollmentState string

const (
	StateIdle      EnrollmentState = "idle"
	StateCapturing EnrollmentState = "capturing"
	StateSuccess   EnrollmentState = "success"
	StateError     EnrollmentState = "error"
	StateCancelled EnrollmentState = "cancelled"
)

const (
	MessagePosition  = "Position your face in the frame"
	MessageCapturing = "Stay still... capturing face"
	MessageNoFace    = "Face not detected. Please position your face clearly in the frame."
	MessageComplete  = "Face registration complete!"
	MessageCancelled = "Face registration cancelled"
)

var (
	ErrCaptureInProgress  = errors.New("a capture is already in progress")
	ErrEnrollmentFinished = errors.New("enrollment already finished")
	ErrEnrollmentCanceled = errors.New("enrollment cancelled")
)

// Extractor produces one descriptor from the current camera frame. A nil descriptor with a nil
// error means no face was found; an error means the device itself failed.
type Extractor func(ctx context.Context) (entity.FaceDescriptor, error)

type EnrollmentConfig struct {
	Required         int
	ErrorRevertDelay time.Duration
}

func DefaultEnrollmentConfig() EnrollmentConfig {
	return EnrollmentConfig{
		Required:         5,
		ErrorRevertDelay: 2 * time.Second,
	}
}

type EnrollmentStatus struct {
	State    EnrollmentState `json:"state"`
	Captured int             `json:"captured"`
	Required int             `json:"required"`
	Message  string          `json:"message"`
}

// EnrollmentFlow collects Required descriptors one capture at a time and hands the full set to
// onComplete exactly once.
type EnrollmentFlow struct {
	mu sync.Mutex

	cfg        EnrollmentConfig
	onComplete func([]entity.FaceDescriptor)

	state    EnrollmentState
	message  string
	captured []entity.FaceDescriptor

	cancelCapture context.CancelFunc
	revert        *time.Timer
}

func NewEnrollmentFlow(cfg EnrollmentConfig, onComplete func([]entity.FaceDescriptor)) *EnrollmentFlow {
	def := DefaultEnrollmentConfig()
	if cfg.Required <= 0 {
		cfg.Required = def.Required
	}
	if cfg.ErrorRevertDelay <= 0 {
		cfg.ErrorRevertDelay = def.ErrorRevertDelay
	}

	return &EnrollmentFlow{
		cfg:        cfg,
		onComplete: onComplete,
		state:      StateIdle,
		message:    MessagePosition,
	}
}

// Capture runs a single extraction. It blocks until the extractor returns or the flow is cancelled.
func (f *EnrollmentFlow) Capture(ctx context.Context, extract Extractor) (EnrollmentStatus, error) {
	f.mu.Lock()
	switch f.state {
	case StateCapturing:
		f.mu.Unlock()
		return f.Status(), ErrCaptureInProgress
	case StateSuccess, StateCancelled:
		f.mu.Unlock()
		return f.Status(), ErrEnrollmentFinished
	}

	f.stopRevert()
	captureCtx, cancel := context.WithCancel(ctx)
	f.cancelCapture = cancel
	f.state = StateCapturing
	f.message = MessageCapturing
	f.mu.Unlock()

	descriptor, err := extract(captureCtx)
	cancel()

	f.mu.Lock()
	f.cancelCapture = nil

	if f.state == StateCancelled {
		status := f.status()
		f.mu.Unlock()
		return status, ErrEnrollmentCanceled
	}

	if err != nil {
		f.state = StateIdle
		f.message = MessagePosition
		status := f.status()
		f.mu.Unlock()
		return status, fmt.Errorf("capture face: %w", err)
	}

	if descriptor == nil {
		f.state = StateError
		f.message = MessageNoFace
		f.scheduleRevert()
		status := f.status()
		f.mu.Unlock()
		return status, nil
	}

	if err := descriptor.Validate(); err != nil {
		f.state = StateIdle
		f.message = MessagePosition
		status := f.status()
		f.mu.Unlock()
		return status, err
	}

	f.captured = append(f.captured, descriptor.Clone())
	if len(f.captured) < f.cfg.Required {
		f.state = StateIdle
		f.message = fmt.Sprintf("Captured %d/%d. Move your head slightly and capture again.", len(f.captured), f.cfg.Required)
		status := f.status()
		f.mu.Unlock()
		return status, nil
	}

	f.state = StateSuccess
	f.message = MessageComplete
	status := f.status()
	set := make([]entity.FaceDescriptor, len(f.captured))
	copy(set, f.captured)
	onComplete := f.onComplete
	f.mu.Unlock()

	if onComplete != nil {
		onComplete(set)
	}

	return status, nil
}

// Reset discards the captured descriptors. It is refused once the flow has finished or while a
// capture is running.
func (f *EnrollmentFlow) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateCapturing:
		return ErrCaptureInProgress
	case StateSuccess, StateCancelled:
		return ErrEnrollmentFinished
	}

	f.stopRevert()
	f.captured = nil
	f.state = StateIdle
	f.message = MessagePosition
	return nil
}

// Cancel abandons the flow and aborts an in-flight extraction. The completion callback will not
// fire afterwards. Cancelling a finished flow does nothing.
func (f *EnrollmentFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSuccess || f.state == StateCancelled {
		return
	}

	f.stopRevert()
	if f.cancelCapture != nil {
		f.cancelCapture()
	}
	f.captured = nil
	f.state = StateCancelled
	f.message = MessageCancelled
}

func (f *EnrollmentFlow) Status() EnrollmentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status()
}

func (f *EnrollmentFlow) status() EnrollmentStatus {
	return EnrollmentStatus{
		State:    f.state,
		Captured: len(f.captured),
		Required: f.cfg.Required,
		Message:  f.message,
	}
}

// scheduleRevert must be called with mu held.
func (f *EnrollmentFlow) scheduleRevert() {
	var t *time.Timer
	t = time.AfterFunc(f.cfg.ErrorRevertDelay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.revert != t || f.state != StateError {
			return
		}
		f.revert = nil
		f.state = StateIdle
		f.message = MessagePosition
	})
	f.revert = t
}

func (f *EnrollmentFlow) stopRevert() {
	if f.revert != nil {
		f.revert.Stop()
		f.revert = nil
	}
}
