package sessions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/strrl/claude-lens/pkg/models"
	"github.com/tidwall/gjson"
)

// DefaultSniffLines is how many lines of a log file are searched for a cwd
const DefaultSniffLines = 10

// SessionFile is one session log found under the projects directory
type SessionFile struct {
	Path       string
	SessionID  string
	ProjectDir string
	ModTime    time.Time
}

// ListSessionFiles returns every <project-dir>/<session-id>.jsonl under
// projectsDir, ordered by directory then file name. A missing projectsDir is
// not an error.
func ListSessionFiles(projectsDir string) ([]SessionFile, error) {
	dirs, err := os.ReadDir(projectsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read projects directory: %w: %w", models.ErrIO, err)
	}

	var files []SessionFile
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(projectsDir, dir.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read project directory %s: %w: %w", dir.Name(), models.ErrIO, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsonl" {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				// removed between ReadDir and Info
				continue
			}
			files = append(files, SessionFile{
				Path:       filepath.Join(projectsDir, dir.Name(), entry.Name()),
				SessionID:  strings.TrimSuffix(entry.Name(), ".jsonl"),
				ProjectDir: dir.Name(),
				ModTime:    info.ModTime().UTC(),
			})
		}
	}
	return files, nil
}

// FindSessionFile locates the log file of a session id
func FindSessionFile(projectsDir, sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\*?[`) {
		return "", fmt.Errorf("session %q: %w", sessionID, models.ErrNotFound)
	}
	matches, err := filepath.Glob(filepath.Join(projectsDir, "*", sessionID+".jsonl"))
	if err != nil {
		return "", fmt.Errorf("failed to search for session %s: %w", sessionID, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("session %q: %w", sessionID, models.ErrNotFound)
	}
	return matches[0], nil
}

// DecodeProjectDir reverses the directory name encoding naively, turning every
// hyphen into a path separator
func DecodeProjectDir(name string) string {
	return strings.ReplaceAll(name, "-", "/")
}

// ResolveProjects maps each project directory name to the real project path.
// The first cwd found in the leading lines of the directory's log files wins;
// directories without one fall back to DecodeProjectDir.
func ResolveProjects(ctx context.Context, files []SessionFile, sniffLines int, logger *logrus.Logger) map[string]string {
	if sniffLines <= 0 {
		sniffLines = DefaultSniffLines
	}
	resolved := make(map[string]string)
	for _, f := range files {
		if _, done := resolved[f.ProjectDir]; done {
			continue
		}
		if cwd := sniffCwd(ctx, f.Path, sniffLines); cwd != "" {
			resolved[f.ProjectDir] = cwd
		}
	}
	for _, f := range files {
		if _, done := resolved[f.ProjectDir]; !done {
			resolved[f.ProjectDir] = DecodeProjectDir(f.ProjectDir)
			if logger != nil {
				logger.WithField("dir", f.ProjectDir).Debug("no cwd found, decoding project directory name")
			}
		}
	}
	return resolved
}

// sniffCwd returns the first non-empty cwd among the first n lines of a file.
// Unreadable files yield "".
func sniffCwd(ctx context.Context, path string, n int) string {
	var cwd string
	seen := 0
	err := forEachLine(ctx, path, func(line []byte) bool {
		seen++
		if v := gjson.GetBytes(line, "cwd"); v.Type == gjson.String && v.Str != "" {
			cwd = v.Str
			return false
		}
		return seen < n
	})
	if err != nil {
		return ""
	}
	return cwd
}
