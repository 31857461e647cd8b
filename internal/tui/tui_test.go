package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/claude-lens/internal/sessions"
	"github.com/strrl/claude-lens/pkg/models"
)

type fakeSource struct {
	projects []models.ProjectSummary
	sessions []models.Session
	messages map[string][]models.Message
}

func (f *fakeSource) ProjectSummary(ctx context.Context) ([]models.ProjectSummary, error) {
	return f.projects, nil
}

func (f *fakeSource) ListSessions(ctx context.Context) ([]models.Session, error) {
	return f.sessions, nil
}

func (f *fakeSource) SessionMessages(ctx context.Context, id string) ([]models.Message, error) {
	msgs, ok := f.messages[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return msgs, nil
}

func newTestModel(t *testing.T, source Source) model {
	t.Helper()
	executor := sessions.NewAsyncExecutor(1, nil)
	t.Cleanup(executor.Close)
	return initialModel(context.Background(), source, executor, 200)
}

func sized(t *testing.T, m model) model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(model)
}

func TestInitialModel(t *testing.T) {
	m := newTestModel(t, &fakeSource{})

	assert.Equal(t, projectView, m.currentMode)
	assert.NotNil(t, m.messageCache)
	assert.NotNil(t, m.activeRequests)
	assert.Equal(t, sessions.StateLoadingProjects, m.loadingState)
	assert.Equal(t, 200, m.previewChars)
	assert.False(t, m.ready)
}

func TestProjectsResult(t *testing.T) {
	m := sized(t, newTestModel(t, &fakeSource{}))
	m.activeRequests["req-1"] = sessions.StateLoadingProjects

	projects := []models.ProjectSummary{
		{ProjectPath: "/work/alpha", Name: "alpha", SessionCount: 2},
		{ProjectPath: "/work/beta", Name: "beta", SessionCount: 1},
	}
	updated, cmd := m.Update(ResultMsg{RequestID: "req-1", Type: sessions.StateLoadingProjects, Data: projects})
	m = updated.(model)

	require.NotNil(t, cmd)
	assert.Len(t, m.projects, 2)
	assert.Empty(t, m.activeRequests)
	assert.Equal(t, sessions.StateIdle, m.loadingState)
	assert.Contains(t, m.renderProjects(), "alpha")
}

func TestStaleResultIgnored(t *testing.T) {
	m := newTestModel(t, &fakeSource{})

	m.handleResult(sessions.Result{
		RequestID: "cancelled",
		Type:      sessions.StateLoadingProjects,
		Data:      []models.ProjectSummary{{Name: "ghost"}},
	})

	assert.Empty(t, m.projects)
}

func TestResultError(t *testing.T) {
	m := newTestModel(t, &fakeSource{})
	m.activeRequests["req-1"] = sessions.StateLoadingProjects

	m.handleResult(sessions.Result{RequestID: "req-1", Type: sessions.StateLoadingProjects, Err: errors.New("boom")})

	assert.EqualError(t, m.err, "boom")
	assert.Equal(t, sessions.StateError, m.loadingState)
}

func TestSessionsResultRequestsMessages(t *testing.T) {
	m := sized(t, newTestModel(t, &fakeSource{}))
	m.selectedProject = &models.ProjectSummary{ProjectPath: "/work/alpha", Name: "alpha"}
	m.activeRequests["req-2"] = sessions.StateLoadingSessions

	m.handleResult(sessions.Result{
		RequestID: "req-2",
		Type:      sessions.StateLoadingSessions,
		Data:      []models.Session{{SessionID: "s1", ProjectPath: "/work/alpha"}},
	})

	assert.Equal(t, sessionView, m.currentMode)
	require.Len(t, m.sessions, 1)
	require.Len(t, m.activeRequests, 1)
	for _, state := range m.activeRequests {
		assert.Equal(t, sessions.StateLoadingMessages, state)
	}
}

func TestMessagesResultCached(t *testing.T) {
	m := newTestModel(t, &fakeSource{})
	m.currentMode = sessionView
	m.sessions = []models.Session{{SessionID: "s1"}, {SessionID: "s2"}}
	m.activeRequests["req-3"] = sessions.StateLoadingMessages

	m.handleResult(sessions.Result{
		RequestID: "req-3",
		Type:      sessions.StateLoadingMessages,
		Data:      messagesLoaded{SessionID: "s1", Lines: []string{"[user] hello"}},
	})

	assert.Equal(t, []string{"[user] hello"}, m.currentMessages)
	assert.Equal(t, []string{"[user] hello"}, m.messageCache["s1"])

	// cached sessions are shown without another request
	m.sessionCursor = 1
	m.messageCache["s2"] = []string{"[assistant] hi"}
	m.loadCurrentSessionMessages()
	assert.Equal(t, []string{"[assistant] hi"}, m.currentMessages)
	assert.Empty(t, m.activeRequests)
}

func TestEscReturnsToProjects(t *testing.T) {
	m := sized(t, newTestModel(t, &fakeSource{}))
	m.currentMode = sessionView
	m.selectedProject = &models.ProjectSummary{Name: "alpha"}
	m.sessions = []models.Session{{SessionID: "s1"}}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(model)

	assert.Equal(t, projectView, m.currentMode)
	assert.Nil(t, m.selectedProject)
	assert.Empty(t, m.sessions)
}

func TestEscCancelsLoading(t *testing.T) {
	m := sized(t, newTestModel(t, &fakeSource{}))
	m.currentMode = sessionView
	m.activeRequests["req-4"] = sessions.StateLoadingMessages

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(model)

	assert.Empty(t, m.activeRequests)
	assert.Equal(t, sessions.StateIdle, m.loadingState)
	assert.Equal(t, sessionView, m.currentMode)
}

func TestEnterOnSessionQuits(t *testing.T) {
	m := sized(t, newTestModel(t, &fakeSource{}))
	m.currentMode = sessionView
	m.sessions = []models.Session{{SessionID: "s1", ProjectPath: "/work/alpha"}}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(model)

	require.NotNil(t, m.selectedSession)
	assert.Equal(t, "s1", m.selectedSession.SessionID)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestQueries(t *testing.T) {
	ts := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	source := &fakeSource{
		projects: []models.ProjectSummary{{Name: "alpha"}},
		sessions: []models.Session{
			{SessionID: "s1", ProjectPath: "/work/alpha"},
			{SessionID: "s2", ProjectPath: "/work/beta"},
		},
		messages: map[string][]models.Message{
			"s1": {
				models.UserMessage{Envelope: models.Envelope{SessionID: "s1", Timestamp: ts}, Content: "fix the bug"},
			},
		},
	}
	ctx := context.Background()

	data, err := projectsQuery(source)(ctx)
	require.NoError(t, err)
	assert.Len(t, data, 1)

	data, err = sessionsQuery(source, "/work/beta")(ctx)
	require.NoError(t, err)
	matched := data.([]models.Session)
	require.Len(t, matched, 1)
	assert.Equal(t, "s2", matched[0].SessionID)

	data, err = messagesQuery(source, "s1", 50)(ctx)
	require.NoError(t, err)
	assert.Equal(t, messagesLoaded{SessionID: "s1", Lines: []string{"[user] fix the bug"}}, data)

	_, err = messagesQuery(source, "missing", 50)(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFormatMessagesSkipsEmpty(t *testing.T) {
	messages := []models.Message{
		models.UserMessage{Content: "hello"},
		models.AssistantMessage{Content: []models.ContentBlock{}},
		models.AssistantMessage{Content: []models.ContentBlock{
			models.TextBlock{Text: "looking"},
			models.ToolUseBlock{ID: "t1", Name: "Read"},
		}},
		models.SummaryMessage{SummaryText: "Fixed login"},
	}

	assert.Equal(t, []string{
		"[user] hello",
		"[assistant] looking [Using tool: Read]",
		"[summary] Fixed login",
	}, formatMessages(messages, 200))
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"fits", "short line", 20, []string{"short line"}},
		{"wraps on words", "one two three four", 9, []string{"one two", "three", "four"}},
		{"zero width", "keep as is", 0, []string{"keep as is"}},
		{"empty", "", 10, []string{""}},
		{"wide runes", "日本語 テキスト", 8, []string{"日本語", "テキスト"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapText(tt.text, tt.width))
		})
	}
}

func TestTruncateWidth(t *testing.T) {
	assert.Equal(t, "abc", truncateWidth("abc", 10))
	assert.Equal(t, "abcd…", truncateWidth("abcdefgh", 5))
	assert.Equal(t, "abcdefgh", truncateWidth("abcdefgh", 0))
}
