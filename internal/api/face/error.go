package face

import (
	"net/http"

	"StudySanctuary/pkg/response"
)

var (
	ErrFaceNotRecognized   = response.NewCodedError(http.StatusUnauthorized, "FACE_NOT_RECOGNIZED", "face not recognized")
	ErrEnrollmentNotFound  = response.NewCodedError(http.StatusNotFound, "ENROLLMENT_NOT_FOUND", "enrollment not found")
	ErrEnrollmentForbidden = response.NewCodedError(http.StatusForbidden, "ENROLLMENT_FORBIDDEN", "enrollment belongs to another user")
	ErrInvalidDescriptor   = response.NewCodedError(http.StatusBadRequest, "INVALID_DESCRIPTOR", "descriptor must hold 128 finite values")
	ErrInvalidThreshold    = response.NewCodedError(http.StatusBadRequest, "INVALID_THRESHOLD", "threshold must be a positive number")
	ErrCaptureSource       = response.NewCodedError(http.StatusBadRequest, "CAPTURE_SOURCE_REQUIRED", "one of descriptor, image_base64, image or no_face is required")
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
)
