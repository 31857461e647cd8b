package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/strrl/claude-lens/internal/sessions"
	"github.com/strrl/claude-lens/pkg/models"
)

// Message types for async operations
type (
	// ResultMsg carries a finished executor request
	ResultMsg sessions.Result

	// ResultsClosedMsg is sent once the executor stopped delivering results
	ResultsClosedMsg struct{}

	// TickMsg is sent periodically for spinner animation
	TickMsg time.Time

	// messagesLoaded is the payload of a StateLoadingMessages result
	messagesLoaded struct {
		SessionID string
		Lines     []string
	}
)

// waitForResult blocks on the executor's result channel
func waitForResult(results <-chan sessions.Result) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-results
		if !ok {
			return ResultsClosedMsg{}
		}
		return ResultMsg(r)
	}
}

// tickCmd creates a ticker for spinner animation
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Queries run on the executor

func projectsQuery(source Source) sessions.Query {
	return func(ctx context.Context) (any, error) {
		return source.ProjectSummary(ctx)
	}
}

func sessionsQuery(source Source, projectPath string) sessions.Query {
	return func(ctx context.Context) (any, error) {
		all, err := source.ListSessions(ctx)
		if err != nil {
			return nil, err
		}
		var matched []models.Session
		for _, s := range all {
			if s.ProjectPath == projectPath {
				matched = append(matched, s)
			}
		}
		return matched, nil
	}
}

func messagesQuery(source Source, sessionID string, budget int) sessions.Query {
	return func(ctx context.Context) (any, error) {
		messages, err := source.SessionMessages(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return messagesLoaded{
			SessionID: sessionID,
			Lines:     formatMessages(messages, budget),
		}, nil
	}
}

// formatMessages renders one labelled preview line per message, skipping
// messages without displayable content
func formatMessages(messages []models.Message, budget int) []string {
	var lines []string
	for _, msg := range messages {
		preview := sessions.MessagePreview(msg, budget)
		if preview == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", msg.Kind(), preview))
	}
	return lines
}
