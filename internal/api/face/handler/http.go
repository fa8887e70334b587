package faceHandler

import (
	faceService "StudySanctuary/internal/api/face/service"
	"StudySanctuary/internal/middleware"
	"StudySanctuary/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type FaceHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	faceService faceService.FaceService
	utils       utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	fs faceService.FaceService,
	utils utils.IUtils,
) *FaceHandler {
	return &FaceHandler{
		log:         log,
		validator:   validator,
		middleware:  middleware,
		faceService: fs,
		utils:       utils,
	}
}

func (h *FaceHandler) Start(srv fiber.Router) {
	face := srv.Group("/face")
	face.Post("/compare", h.HandleCompare)
	face.Post("/match", h.HandleMatch)
	face.Post("/login", h.middleware.NewRateLimiter, h.HandleLogin)

	enrollments := face.Group("/enrollments", h.middleware.NewTokenMiddleware)
	enrollments.Post("", h.HandleStartEnrollment)
	enrollments.Get("/:id", h.HandleGetEnrollment)
	enrollments.Post("/:id/capture", h.HandleCapture)
	enrollments.Post("/:id/reset", h.HandleResetEnrollment)
	enrollments.Delete("/:id", h.HandleCancelEnrollment)
}
