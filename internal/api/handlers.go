package api

import (
	"github.com/gofiber/fiber/v2"
)

// GetSessions lists sessions, filtered by ?q= when present
func GetSessions(q Querier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if query := c.Query("q"); query != "" {
			sessions, err := q.SearchSessions(c.Context(), query)
			if err != nil {
				return err
			}
			return c.JSON(sessions)
		}
		sessions, err := q.ListSessions(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(sessions)
	}
}

// GetChangedSessions returns the sessions modified since the previous call
func GetChangedSessions(q Querier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessions, err := q.ChangedSessions(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(sessions)
	}
}

func GetSessionMessages(q Querier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		messages, err := q.SessionMessages(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(messages)
	}
}

// ExportSession sends the session's messages as a JSON attachment
func ExportSession(q Querier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		data, err := q.ExportSession(c.Context(), id)
		if err != nil {
			return err
		}
		c.Attachment(id + ".json")
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	}
}

func GetProjects(q Querier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		projects, err := q.ProjectSummary(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(projects)
	}
}

func GetStats(q Querier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := q.Stats(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(stats)
	}
}

// GetCommands returns the command history, filtered by ?q= when present
func GetCommands(q Querier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if query := c.Query("q"); query != "" {
			entries, err := q.SearchCommands(c.Context(), query)
			if err != nil {
				return err
			}
			return c.JSON(entries)
		}
		entries, err := q.CommandHistory(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(entries)
	}
}

func GetTodos(q Querier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		todos, err := q.Todos(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(todos)
	}
}

func GetSettings(q Querier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		settings, err := q.Settings(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(settings)
	}
}

func GetIdeLocks(q Querier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		locks, err := q.IdeLocks(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(locks)
	}
}

// ReadFile returns the content of ?path=, which must lie under a .claude directory
func ReadFile(q Querier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Query("path")
		if path == "" {
			return fiber.NewError(fiber.StatusBadRequest, "path is required")
		}
		content, err := q.ReadFile(path)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"path":    path,
			"content": content,
		})
	}
}

// WriteFile writes {"path", "content"} to a file under a .claude directory
func WriteFile(q Querier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Path    string `json:"path"`
			Content string `json:"content"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.Path == "" {
			return fiber.NewError(fiber.StatusBadRequest, "path is required")
		}
		if err := q.WriteFile(req.Path, req.Content); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
