// Package api serves the query interface over a local HTTP API.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/strrl/claude-lens/internal/watch"
	"github.com/strrl/claude-lens/pkg/models"
)

// Querier is the subset of the store the API exposes
type Querier interface {
	ListSessions(ctx context.Context) ([]models.Session, error)
	ChangedSessions(ctx context.Context) ([]models.Session, error)
	SessionMessages(ctx context.Context, sessionID string) ([]models.Message, error)
	SearchSessions(ctx context.Context, query string) ([]models.Session, error)
	ExportSession(ctx context.Context, sessionID string) ([]byte, error)
	ProjectSummary(ctx context.Context) ([]models.ProjectSummary, error)
	Stats(ctx context.Context) (models.Stats, error)
	CommandHistory(ctx context.Context) ([]models.CommandLogEntry, error)
	SearchCommands(ctx context.Context, query string) ([]models.CommandLogEntry, error)
	Todos(ctx context.Context) ([]models.TodoItem, error)
	Settings(ctx context.Context) (*models.Settings, error)
	IdeLocks(ctx context.Context) ([]models.IdeInfo, error)
	ReadFile(path string) (string, error)
	WriteFile(path, content string) error
}

// Options configures the API app
type Options struct {
	// Hub enables /ws/events when set
	Hub    *watch.Hub
	Logger *logrus.Logger
}

// NewApp builds the fiber app with every route registered
func NewApp(q Querier, opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	app := fiber.New(fiber.Config{
		AppName:               "claude-lens",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestLogger(opts.Logger))

	SetupRoutes(app, q, opts)
	return app
}

// Serve listens on addr until ctx ends, then shuts the app down
func Serve(ctx context.Context, app *fiber.App, addr string, logger *logrus.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()
	logger.Infof("claude-lens API listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			return err
		}
		return nil
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

// statusFor maps query errors to HTTP status codes
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrAccessDenied):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrDecode):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

func requestLogger(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = statusFor(err)
		}
		logger.WithFields(logrus.Fields{
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   status,
			"duration": time.Since(start),
		}).Debug("request")
		return err
	}
}
