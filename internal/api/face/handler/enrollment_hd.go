package faceHandler

import (
	"strings"
	"time"

	"StudySanctuary/internal/api/face"
	"StudySanctuary/internal/entity"
	contextPkg "StudySanctuary/pkg/context"
	"StudySanctuary/pkg/handlerUtil"
	jwtPkg "StudySanctuary/pkg/jwt"
	"StudySanctuary/pkg/log"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *FaceHandler) HandleStartEnrollment(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req face.StartEnrollmentRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.faceService.Enrollment().Start(c, user, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "start_enrollment")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, res)
	}
}

// HandleCapture accepts a multipart "image" upload or a JSON CaptureRequest.
func (h *FaceHandler) HandleCapture(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var in face.CaptureInput
	if strings.HasPrefix(string(ctx.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		file, err := ctx.FormFile("image")
		if err != nil {
			return errHandler.Handle(ctx, requestID, face.ErrCaptureSource, ctx.Path(), "read_form_file")
		}

		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"file_name":  file.Filename,
			"file_size":  file.Size,
		}).Debug("Processing capture upload")

		in.Image, err = h.utils.ReadImageFile(file)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_image_file")
		}
	} else {
		var req face.CaptureRequest
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}

		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}

		in.NoFace = req.NoFace
		if req.Descriptor != nil {
			in.Descriptor = entity.FaceDescriptor(req.Descriptor)
		}
		if req.ImageBase64 != "" {
			in.Image, err = h.utils.DecodeBase64Image(req.ImageBase64)
			if err != nil {
				return errHandler.Handle(ctx, requestID, err, ctx.Path(), "decode_image")
			}
		}
	}

	res, err := h.faceService.Enrollment().Capture(c, user, ctx.Params("id"), in)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "capture_face")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *FaceHandler) HandleGetEnrollment(ctx *fiber.Ctx) error {
	return h.enrollmentAction(ctx, "get_enrollment", h.faceService.Enrollment().Status)
}

func (h *FaceHandler) HandleResetEnrollment(ctx *fiber.Ctx) error {
	return h.enrollmentAction(ctx, "reset_enrollment", h.faceService.Enrollment().Reset)
}

func (h *FaceHandler) HandleCancelEnrollment(ctx *fiber.Ctx) error {
	return h.enrollmentAction(ctx, "cancel_enrollment", h.faceService.Enrollment().Cancel)
}

func (h *FaceHandler) enrollmentAction(
	ctx *fiber.Ctx,
	operation string,
	action func(context.Context, entity.UserLoginData, string) (face.EnrollmentResponse, error),
) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	res, err := action(c, user, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), operation)
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}
