package config

import (
	"fmt"
	"os"
	"time"

	"StudySanctuary/database/postgres"
	faceHandler "StudySanctuary/internal/api/face/handler"
	faceRepository "StudySanctuary/internal/api/face/repository"
	faceService "StudySanctuary/internal/api/face/service"
	focusHandler "StudySanctuary/internal/api/focus/handler"
	focusService "StudySanctuary/internal/api/focus/service"
	"StudySanctuary/internal/middleware"
	"StudySanctuary/pkg/biometric"
	"StudySanctuary/pkg/camera"
	focusPkg "StudySanctuary/pkg/focus"
	"StudySanctuary/pkg/redis"
	"StudySanctuary/pkg/utils"
	websocketPkg "StudySanctuary/pkg/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	redisServer redis.IRedis
	detector    camera.Device
	focusConfig FocusConfig
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{focusConfig: DefaultFocusConfig()}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

// WithDetector sets the device that turns camera frames into landmarks and descriptors.
func WithDetector(detector camera.Device) ServerOption {
	return func(s *Server) error {
		s.detector = detector
		return nil
	}
}

func WithFocusConfig(cfg FocusConfig) ServerOption {
	return func(s *Server) error {
		s.focusConfig = cfg
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() error {
	classifier, err := focusPkg.NewClassifier(s.focusConfig.Thresholds)
	if err != nil {
		return err
	}
	matcher, err := biometric.NewMatcher(s.focusConfig.MatchThreshold)
	if err != nil {
		return err
	}

	// Focus Domain
	focusServices := focusService.New(s.log, s.redisServer, s.detector, s.utils, focusService.Config{
		Classifier: classifier,
		SummaryTTL: s.focusConfig.SummaryTTL,
	})
	focusHandlers := focusHandler.New(s.log, s.validator, s.middleware, focusServices)

	// Face Domain
	faceRepo := faceRepository.New(s.db, s.log, s.utils)
	faceServices := faceService.New(s.log, faceRepo, s.redisServer, s.detector, s.utils, faceService.Config{
		Matcher:          matcher,
		Enrollment:       s.focusConfig.Enrollment,
		EnrolledCacheTTL: s.focusConfig.EnrolledCacheTTL,
		TokenTTL:         s.focusConfig.TokenTTL,
	})
	faceHandlers := faceHandler.New(s.log, s.validator, s.middleware, faceServices, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, focusHandlers, faceHandlers)
	return nil
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware)
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests and releases the detector connections, redis and the database.
func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.engine.ShutdownWithTimeout(timeout)

	if d, ok := s.detector.(*websocketPkg.DetectorDevice); ok {
		d.CloseConnections()
	}
	if s.redisServer != nil {
		if cerr := s.redisServer.Close(); cerr != nil {
			s.log.Errorf("Failed to close redis: %v", cerr)
		}
	}
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil {
			s.log.Errorf("Failed to close database: %v", cerr)
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
