package focus

import (
	"net/http"

	"StudySanctuary/pkg/response"
)

var (
	ErrSessionNotFound     = response.NewCodedError(http.StatusNotFound, "FOCUS_SESSION_NOT_FOUND", "focus session not found")
	ErrInvalidLandmarks    = response.NewCodedError(http.StatusBadRequest, "INVALID_LANDMARKS", "invalid landmark payload")
	ErrDetectorUnavailable = response.NewCodedError(http.StatusServiceUnavailable, "DETECTOR_UNAVAILABLE", "landmark detector unavailable")
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
)
