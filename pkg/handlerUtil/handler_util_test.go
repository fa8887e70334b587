package handlerUtil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/biometric"
	"StudySanctuary/pkg/camera"
	"StudySanctuary/pkg/response"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

func TestErrorHandler_Handle(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "coded response error",
			err:        response.NewCodedError(http.StatusUnauthorized, "FACE_NOT_RECOGNIZED", "face not recognized"),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "FACE_NOT_RECOGNIZED",
		},
		{
			name:       "wrapped response error",
			err:        fmt.Errorf("load: %w", response.NewError(http.StatusNotFound, "missing")),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "capture in progress",
			err:        biometric.ErrCaptureInProgress,
			wantStatus: http.StatusConflict,
			wantCode:   "CAPTURE_IN_PROGRESS",
		},
		{
			name:       "wrapped invalid descriptor",
			err:        fmt.Errorf("capture: %w", entity.ErrInvalidDescriptor),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_DESCRIPTOR",
		},
		{
			name:       "camera unavailable",
			err:        fmt.Errorf("%w: dial refused", camera.ErrUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "CAMERA_UNAVAILABLE",
		},
		{
			name:       "unexpected",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return New(logger).Handle(c, "req-1", tc.err, c.Path(), "test")
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tc.wantStatus)
			}

			var body ErrorResponse
			if err := jsoniter.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tc.wantCode {
				t.Errorf("code: got %q, want %q", body.Code, tc.wantCode)
			}
			if tc.wantStatus == http.StatusInternalServerError && body.TraceID != "req-1" {
				t.Errorf("trace id: got %q, want the request id", body.TraceID)
			}
		})
	}
}
