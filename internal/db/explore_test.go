package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExplorer(t *testing.T) *Explorer {
	t.Helper()
	conn, err := GetDB()
	if err != nil {
		t.Skipf("duckdb unavailable: %v", err)
	}

	dir := filepath.Join(t.TempDir(), ".claude")
	projectDir := filepath.Join(dir, "projects", "-work-app")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))

	write := func(name string, lines ...string) {
		require.NoError(t, os.WriteFile(filepath.Join(projectDir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	}
	write("s1.jsonl",
		`{"type":"user","sessionId":"s1","cwd":"/work/app","gitBranch":"main","timestamp":"2025-07-01T10:00:00Z","message":{"content":"hello"}}`,
		`{"type":"assistant","sessionId":"s1","cwd":"/work/app","gitBranch":"main","timestamp":"2025-07-01T10:00:01Z","message":{"content":[{"type":"text","text":"hi"}]}}`,
	)
	write("s2.jsonl",
		`{"type":"user","sessionId":"s2","cwd":"/work/app","gitBranch":"feature","timestamp":"2025-07-02T10:00:00Z","message":{"content":"again"}}`,
	)

	e := NewExplorer(conn, dir)
	require.NoError(t, e.CreateViews(context.Background()))
	return e
}

func TestExplorerPresets(t *testing.T) {
	e := newTestExplorer(t)
	ctx := context.Background()

	table, err := e.Query(ctx, Presets["types"])
	require.NoError(t, err)
	assert.Equal(t, []string{"type", "records"}, table.Columns)
	assert.Equal(t, [][]string{{"user", "2"}, {"assistant", "1"}}, table.Rows)

	table, err = e.Query(ctx, Presets["projects"])
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "/work/app", table.Rows[0][0])
	assert.Equal(t, "2", table.Rows[0][1])

	table, err = e.Query(ctx, Presets["files"])
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestExplorerQueryArgs(t *testing.T) {
	e := newTestExplorer(t)

	table, err := e.Query(context.Background(),
		"SELECT COUNT(*) AS n FROM records WHERE gitBranch = ?", "main")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2"}}, table.Rows)
}

func TestExplorerQueryError(t *testing.T) {
	e := newTestExplorer(t)

	_, err := e.Query(context.Background(), "SELECT * FROM no_such_table")
	assert.ErrorContains(t, err, "failed to execute query")
}

func TestPresetNames(t *testing.T) {
	assert.Equal(t, []string{"branches", "files", "projects", "types"}, PresetNames())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "raw", formatValue([]byte("raw")))
	assert.Equal(t, "42", formatValue(int64(42)))
	assert.Equal(t, "true", formatValue(true))
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "/home/o''brien/.claude", quoteLiteral("/home/o'brien/.claude"))
	assert.Equal(t, "plain", quoteLiteral("plain"))
}
