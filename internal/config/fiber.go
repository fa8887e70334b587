package config

import (
	"os"
	"time"

	"StudySanctuary/pkg/handlerUtil"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// maxBodySize covers a base64 camera frame inside a JSON capture body.
const maxBodySize = 8 * 1024 * 1024

func NewFiber(logger *logrus.Logger) *fiber.App {
	errHandler := handlerUtil.New(logger)

	app := fiber.New(
		fiber.Config{
			AppName:           "Study Sanctuary",
			BodyLimit:         maxBodySize,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
			StrictRouting:     true,
			CaseSensitive:     true,
			EnablePrintRoutes: os.Getenv("APP_ENV") != "production",
			JSONEncoder:       jsoniter.Marshal,
			JSONDecoder:       jsoniter.Unmarshal,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				requestID, _ := c.Locals("X-Request-ID").(string)
				return errHandler.Handle(c, requestID, err, c.Path(), "unhandled")
			},
		})

	return app
}
