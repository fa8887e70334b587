package focusHandler

import (
	focusService "StudySanctuary/internal/api/focus/service"
	"StudySanctuary/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type FocusHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	focusService focusService.FocusService
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	fs focusService.FocusService,
) *FocusHandler {
	return &FocusHandler{
		log:          log,
		validator:    validator,
		middleware:   middleware,
		focusService: fs,
	}
}

func (h *FocusHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	focus := srv.Group("/focus")
	focus.Use("/ws", wsMiddleware)
	focus.Get("/ws", websocket.New(h.handleWebSocket))
	focus.Post("/evaluate", h.HandleEvaluate)
	focus.Get("/sessions/:id", h.HandleGetSession)
}
