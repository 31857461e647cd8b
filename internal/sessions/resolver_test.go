package sessions

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/claude-lens/pkg/models"
)

func TestListSessionFiles(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-work-b", "s3", `{}`)
	writeSession(t, root, "-work-a", "s2", `{}`)
	writeSession(t, root, "-work-a", "s1", `{}`)
	require.NoError(t, os.WriteFile(filepath.Join(root, "projects", "-work-a", "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "projects", "stray.jsonl"), []byte("{}"), 0o644))

	files, err := ListSessionFiles(filepath.Join(root, "projects"))
	require.NoError(t, err)

	var ids []string
	for _, f := range files {
		ids = append(ids, f.ProjectDir+"/"+f.SessionID)
		assert.False(t, f.ModTime.IsZero())
	}
	assert.Equal(t, []string{"-work-a/s1", "-work-a/s2", "-work-b/s3"}, ids)
}

func TestListSessionFilesMissingDir(t *testing.T) {
	files, err := ListSessionFiles(filepath.Join(t.TempDir(), "projects"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFindSessionFile(t *testing.T) {
	root := t.TempDir()
	want := writeSession(t, root, "-work-a", "abc-123", `{}`)
	projectsDir := filepath.Join(root, "projects")

	got, err := FindSessionFile(projectsDir, "abc-123")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	for _, id := range []string{"missing", "", "*", "../abc-123", "abc-12?"} {
		_, err := FindSessionFile(projectsDir, id)
		assert.ErrorIs(t, err, models.ErrNotFound, id)
	}
}

func TestResolveProjectsPrefersCwd(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-Users-me-my-project", "s1",
		`{"type":"summary","summary":"x"}`,
		`{"type":"user","cwd":"/Users/me/my-project","message":{"content":"hi"}}`,
	)
	writeSession(t, root, "-tmp-other", "s2", `{"type":"summary","summary":"no cwd"}`)

	files, err := ListSessionFiles(filepath.Join(root, "projects"))
	require.NoError(t, err)

	resolved := ResolveProjects(context.Background(), files, DefaultSniffLines, nil)
	assert.Equal(t, map[string]string{
		"-Users-me-my-project": "/Users/me/my-project",
		"-tmp-other":           "/tmp/other",
	}, resolved)
}

func TestResolveProjectsSniffLimit(t *testing.T) {
	root := t.TempDir()
	lines := make([]string, 0, 4)
	for i := 0; i < 3; i++ {
		lines = append(lines, `{"type":"summary","summary":"filler"}`)
	}
	lines = append(lines, `{"type":"user","cwd":"/far/away-dir"}`)
	writeSession(t, root, "-far-away-dir", "s1", lines...)

	files, err := ListSessionFiles(filepath.Join(root, "projects"))
	require.NoError(t, err)

	assert.Equal(t, "/far/away-dir", ResolveProjects(context.Background(), files, 4, nil)["-far-away-dir"])
	assert.Equal(t, "/far/away/dir", ResolveProjects(context.Background(), files, 2, nil)["-far-away-dir"])
}

func TestResolveProjectsTriesEveryFile(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-srv-my-app", "a", `{"type":"summary","summary":"none"}`)
	writeSession(t, root, "-srv-my-app", "b", `{"type":"user","cwd":"/srv/my-app"}`)

	files, err := ListSessionFiles(filepath.Join(root, "projects"))
	require.NoError(t, err)

	resolved := ResolveProjects(context.Background(), files, DefaultSniffLines, nil)
	assert.Equal(t, "/srv/my-app", resolved["-srv-my-app"])
	assert.NotEqual(t, DecodeProjectDir("-srv-my-app"), resolved["-srv-my-app"])
}

func TestDecodeProjectDir(t *testing.T) {
	assert.Equal(t, "/Users/me/code", DecodeProjectDir("-Users-me-code"))
	assert.Equal(t, "plain", DecodeProjectDir("plain"))
	assert.True(t, strings.HasPrefix(DecodeProjectDir("-a-b"), "/"))
}
