package handlerUtil

import (
	"errors"

	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/biometric"
	"StudySanctuary/pkg/camera"
	"StudySanctuary/pkg/log"
	"StudySanctuary/pkg/response"
	"StudySanctuary/pkg/utils"
	"github.com/gofiber/fiber/v2"
	fiberUtils "github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

type domainError struct {
	target  error
	status  int
	code    string
	message string
}

// domainErrors maps errors of the core packages, which know nothing about HTTP.
var domainErrors = []domainError{
	{biometric.ErrCaptureInProgress, fiber.StatusConflict, "CAPTURE_IN_PROGRESS", "A capture is already in progress"},
	{biometric.ErrEnrollmentFinished, fiber.StatusConflict, "ENROLLMENT_FINISHED", "Enrollment already finished"},
	{biometric.ErrEnrollmentCanceled, fiber.StatusConflict, "ENROLLMENT_CANCELLED", "Enrollment was cancelled"},
	{entity.ErrInvalidDescriptor, fiber.StatusBadRequest, "INVALID_DESCRIPTOR", "Descriptor must hold 128 finite values"},
	{entity.ErrLandmarkCardinality, fiber.StatusBadRequest, "INVALID_LANDMARKS", "Unexpected number of landmarks"},
	{entity.ErrLandmarkOutOfRange, fiber.StatusBadRequest, "INVALID_LANDMARKS", "Landmark outside the normalized frame"},
	{entity.ErrUnknownLandmarkTable, fiber.StatusBadRequest, "INVALID_LANDMARKS", "Unknown landmark table"},
	{camera.ErrUnavailable, fiber.StatusServiceUnavailable, "CAMERA_UNAVAILABLE", "Detector is unavailable"},
	{utils.ErrNotAnImage, fiber.StatusBadRequest, "INVALID_IMAGE", "Invalid file type. Only images are allowed."},
	{utils.ErrFileTooLarge, fiber.StatusBadRequest, "INVALID_IMAGE", "File too large. Maximum size is 5MB."},
	{utils.ErrEmptyImage, fiber.StatusBadRequest, "INVALID_IMAGE", "Image is empty"},
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       respErr.Code,
			"path":       path,
			"operation":  operation,
		}).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(ErrorResponse{
			Error: respErr.Err.Error(),
			Code:  respErr.Key,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Request rejected")
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Error: fiberErr.Message,
		})
	}

	for _, d := range domainErrors {
		if errors.Is(err, d.target) {
			h.logger.WithFields(log.Fields{
				"request_id": requestID,
				"error":      err.Error(),
				"path":       path,
				"operation":  operation,
			}).Warn(d.message)
			return c.Status(d.status).JSON(ErrorResponse{
				Error: d.message,
				Code:  d.code,
			})
		}
	}

	traceID := log.ErrorWithTraceID(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}, "Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "An unexpected error occurred",
		TraceID: traceID,
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed: " + err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(fiberUtils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleUnauthorized(c *fiber.Ctx, requestID string, message string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"path":       c.Path(),
		"message":    message,
	}).Warn("Unauthorized access")

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
		"code":  "UNAUTHORIZED",
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
