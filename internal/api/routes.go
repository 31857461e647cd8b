package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, q Querier, opts Options) {
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "claude-lens",
		})
	})

	// Sessions
	api.Get("/sessions", GetSessions(q))
	api.Get("/sessions/changed", GetChangedSessions(q))
	api.Get("/sessions/:id/messages", GetSessionMessages(q))
	api.Get("/sessions/:id/export", ExportSession(q))

	// Aggregates
	api.Get("/projects", GetProjects(q))
	api.Get("/stats", GetStats(q))

	// Side files
	api.Get("/commands", GetCommands(q))
	api.Get("/todos", GetTodos(q))
	api.Get("/settings", GetSettings(q))
	api.Get("/ide", GetIdeLocks(q))
	api.Get("/files", ReadFile(q))
	api.Put("/files", WriteFile(q))

	if opts.Hub == nil {
		return
	}
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", StreamEvents(opts.Hub, opts.Logger))
}
