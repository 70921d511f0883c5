package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/sirupsen/logrus"
)

// WorkspaceHeader carries the id of the workspace session that answered.
const WorkspaceHeader = "X-Modelcfg-Workspace"

//nolint:gochecknoglobals // static list
var allowedMethods = []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions}

// setupMiddleware configures global middleware for the Fiber app
func setupMiddleware(app *fiber.App, cfg *Config, workspaceID string, log logrus.FieldLogger) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestLogger(log))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: allowedMethods,
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}))

	app.Use(func(c fiber.Ctx) error {
		c.Set(WorkspaceHeader, workspaceID)
		return c.Next()
	})
}

// requestLogger logs each request at debug level once the chain returns.
func requestLogger(log logrus.FieldLogger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}

		log.WithFields(logrus.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  status,
			"latency": time.Since(start).String(),
		}).Debug("Handled request")

		return err
	}
}

func statusOf(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	return fiber.StatusInternalServerError
}

// newErrorHandler renders errors as {"error", "code"} and logs unexpected ones.
func newErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := statusOf(err)
		message := "Internal Server Error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			message = fiberErr.Message
		} else {
			log.WithError(err).WithField("path", c.Path()).Error("Request failed")
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
			"code":  code,
		})
	}
}
