package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/claude-lens/pkg/models"
)

// newTestStore creates a store over an empty .claude directory
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".claude")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return New(Config{ClaudeDir: dir, Workers: 2}), dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeSession(t *testing.T, dir, projectDir, sessionID string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "projects", projectDir, sessionID+".jsonl")
	writeFile(t, path, strings.Join(lines, "\n")+"\n")
	return path
}

func userLine(cwd, ts, content string) string {
	return `{"type":"user","cwd":"` + cwd + `","timestamp":"` + ts + `","message":{"content":"` + content + `"}}`
}

func TestListSessions(t *testing.T) {
	store, dir := newTestStore(t)
	writeSession(t, dir, "-work-app", "s1", userLine("/work/app", "2025-07-01T10:00:00Z", "one"))
	writeSession(t, dir, "-work-app", "s2", userLine("/work/app", "2025-07-02T10:00:00Z", "two"))

	list, err := store.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s2", list[0].SessionID)
	assert.Equal(t, "/work/app", list[0].ProjectPath)
	require.NotNil(t, list[0].LatestContentPreview)
	assert.Equal(t, "two", *list[0].LatestContentPreview)
}

func TestListSessionsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	list, err := store.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSessionMessages(t *testing.T) {
	store, dir := newTestStore(t)
	path := writeSession(t, dir, "-work-app", "s1",
		userLine("/work/app", "2025-07-01T10:00:00Z", "one"),
		`{"type":"assistant","timestamp":"2025-07-01T10:00:01Z","message":{"stop_reason":"end_turn","content":[{"type":"text","text":"two"}]}}`,
	)

	messages, err := store.SessionMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "one", messages[0].(models.UserMessage).Content)

	// served from cache until invalidated
	writeFile(t, path, userLine("/work/app", "2025-07-01T10:00:00Z", "rewritten")+"\n")
	messages, err = store.SessionMessages(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, messages, 2)

	store.InvalidateSession("s1")
	messages, err = store.SessionMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "rewritten", messages[0].(models.UserMessage).Content)
}

func TestSessionMessagesNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.SessionMessages(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = store.ExportSession(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestExportSession(t *testing.T) {
	store, dir := newTestStore(t)
	writeSession(t, dir, "-work-app", "s1", userLine("/work/app", "2025-07-01T10:00:00Z", "hello"))

	data, err := store.ExportSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  ")

	var exported []map[string]any
	require.NoError(t, json.Unmarshal(data, &exported))
	require.Len(t, exported, 1)
	assert.Equal(t, "user", exported[0]["message_type"])
	assert.Equal(t, "hello", exported[0]["content"])
}

func TestChangedSessions(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()
	path := writeSession(t, dir, "-work-app", "s1", userLine("/work/app", "2025-07-01T10:00:00Z", "one"))
	writeSession(t, dir, "-work-app", "s2", userLine("/work/app", "2025-07-01T11:00:00Z", "two"))

	first, err := store.ChangedSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := store.ChangedSessions(ctx)
	require.NoError(t, err)
	assert.NotNil(t, second)
	assert.Empty(t, second)

	writeFile(t, path, userLine("/work/app", "2025-07-01T10:00:00Z", "one")+"\n"+
		userLine("/work/app", "2025-07-01T12:00:00Z", "three")+"\n")
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	third, err := store.ChangedSessions(ctx)
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.Equal(t, "s1", third[0].SessionID)
	assert.Equal(t, 2, third[0].MessageCount)
	assert.Equal(t, "/work/app", third[0].ProjectPath)
}

func TestChangedSessionsConcurrentCallers(t *testing.T) {
	store, dir := newTestStore(t)
	for i := range 5 {
		id := fmt.Sprintf("s%d", i)
		writeSession(t, dir, "-work-app", id, userLine("/work/app", "2025-07-01T10:00:00Z", id))
	}

	var wg sync.WaitGroup
	results := make([][]models.Session, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := store.ChangedSessions(context.Background())
			assert.NoError(t, err)
			results[i] = list
		}()
	}
	wg.Wait()

	seen := make(map[string]int)
	for _, list := range results {
		for _, s := range list {
			seen[s.SessionID]++
		}
	}
	assert.Len(t, seen, 5)
	for id, n := range seen {
		assert.Equal(t, 1, n, "session %s reported more than once", id)
	}
}

func TestCountActiveTodosMatchesWholeSessionID(t *testing.T) {
	files := []todoFile{
		{name: "s1-agent-s1.json", items: []models.TodoItem{{Content: "a", Status: models.TodoPending}}},
		{name: "s10-agent-s10.json", items: []models.TodoItem{
			{Content: "b", Status: models.TodoPending},
			{Content: "c", Status: models.TodoInProgress},
		}},
	}

	assert.Equal(t, 1, countActiveTodos(files, []string{"s1"}))
	assert.Equal(t, 2, countActiveTodos(files, []string{"s10"}))
	assert.Equal(t, 3, countActiveTodos(files, []string{"s1", "s10"}))
}

func TestProjectSummary(t *testing.T) {
	store, dir := newTestStore(t)
	app1 := writeSession(t, dir, "-work-app", "s1", userLine("/work/app", "2025-07-01T10:00:00Z", "one"))
	app2 := writeSession(t, dir, "-work-app", "s2", userLine("/work/app", "2025-07-01T11:00:00Z", "two"))
	lib := writeSession(t, dir, "-work-lib", "s3", userLine("/work/lib", "2025-07-03T11:00:00Z", "three"))

	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(lib, base, base))
	require.NoError(t, os.Chtimes(app1, base.Add(200*time.Millisecond), base.Add(200*time.Millisecond)))
	require.NoError(t, os.Chtimes(app2, base.Add(400*time.Millisecond), base.Add(400*time.Millisecond)))

	writeFile(t, filepath.Join(dir, "todos", "s1-agent-s1.json"),
		`[{"content":"a","status":"pending"},{"content":"b","status":"completed"},{"content":"c","status":"in_progress"}]`)
	writeFile(t, filepath.Join(dir, "todos", "s3-agent-s3.json"), `[{"content":"d","status":"completed"}]`)

	projects, err := store.ProjectSummary(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, "/work/app", projects[0].ProjectPath)
	assert.Equal(t, 2, projects[0].SessionCount)
	assert.Equal(t, 2, projects[0].ActiveTodos)
	require.NotNil(t, projects[0].LatestMessage)
	assert.Equal(t, "two", *projects[0].LatestMessage)

	assert.Equal(t, "/work/lib", projects[1].ProjectPath)
	assert.Equal(t, 0, projects[1].ActiveTodos)
}

func TestStats(t *testing.T) {
	store, dir := newTestStore(t)
	writeSession(t, dir, "-work-app", "s1",
		userLine("/work/app", "2025-07-01T10:00:00Z", "one"),
		userLine("/work/app", "2025-07-01T10:01:00Z", "two"))
	writeSession(t, dir, "-work-lib", "s2",
		userLine("/work/lib", "2025-07-01T10:00:00Z", "three"),
		`{"type":"system","content":"hook ran","timestamp":"2025-07-01T10:00:01Z"}`)
	writeFile(t, filepath.Join(dir, "command_history.log"),
		"[Thu Jul 17 15:18:23 UTC 2025] me: ls\n[Thu Jul 17 15:19:23 UTC 2025] me: pwd\n")
	writeFile(t, filepath.Join(dir, "todos", "s1-agent-s1.json"), `[{"content":"a","status":"pending"}]`)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Stats{
		TotalSessions:  2,
		TotalMessages:  4,
		TotalCommands:  2,
		ActiveProjects: 2,
		PendingTodos:   1,
	}, stats)
}

func TestTodos(t *testing.T) {
	store, dir := newTestStore(t)
	writeFile(t, filepath.Join(dir, "todos", "a-agent-a.json"), `[{"id":"1","content":"write docs","status":"pending","priority":"high"}]`)
	writeFile(t, filepath.Join(dir, "todos", "b-agent-b.json"), `{"not":"an array"}`)
	writeFile(t, filepath.Join(dir, "todos", "c-agent-c.json"), `[{"content":"x","status":"blocked"}]`)
	writeFile(t, filepath.Join(dir, "todos", "readme.txt"), `ignored`)

	todos, err := store.Todos(context.Background())
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "write docs", todos[0].Content)
	assert.Equal(t, models.PriorityHigh, todos[0].Priority)
}

func TestTodosMissingDir(t *testing.T) {
	store, _ := newTestStore(t)

	todos, err := store.Todos(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, todos)
	assert.Empty(t, todos)
}

func TestSettings(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	_, err := store.Settings(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)

	writeFile(t, filepath.Join(dir, "settings.json"), `{"permissions":`)
	_, err = store.Settings(ctx)
	assert.ErrorIs(t, err, models.ErrDecode)

	writeFile(t, filepath.Join(dir, "settings.json"), `{"permissions":{"allow":["Read"],"deny":["Bash(rm:*)"]},"model":"sonnet"}`)
	settings, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Read"}, settings.Permissions.Allow)
	assert.Equal(t, []string{"Bash(rm:*)"}, settings.Permissions.Deny)
	assert.Equal(t, "sonnet", settings.Model)
}
