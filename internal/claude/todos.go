package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/strrl/claude-lens/pkg/models"
)

type todoFile struct {
	name  string
	items []models.TodoItem
}

// Todos returns the items of every todos/*.json file. Files that are not a
// valid todo array are skipped.
func (s *Store) Todos(ctx context.Context) ([]models.TodoItem, error) {
	files, err := s.todoFiles()
	if err != nil {
		return nil, err
	}
	todos := []models.TodoItem{}
	for _, f := range files {
		todos = append(todos, f.items...)
	}
	return todos, nil
}

func (s *Store) todoFiles() ([]todoFile, error) {
	dir := filepath.Join(s.dir, "todos")
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read todos directory: %w: %w", models.ErrIO, err)
	}

	var files []todoFile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.WithError(err).WithField("file", path).Debug("skipping unreadable todo file")
			continue
		}
		var items []models.TodoItem
		if err := json.Unmarshal(data, &items); err != nil {
			s.logger.WithError(err).WithField("file", path).Debug("skipping malformed todo file")
			continue
		}
		files = append(files, todoFile{name: entry.Name(), items: items})
	}
	return files, nil
}

// countActiveTodos counts pending and in-progress items in todo files that
// belong to one of sessionIDs. Todo files are named <session-id>-agent-*.json.
func countActiveTodos(files []todoFile, sessionIDs []string) int {
	count := 0
	for _, f := range files {
		for _, id := range sessionIDs {
			if !strings.HasPrefix(f.name, id+"-") {
				continue
			}
			for _, item := range f.items {
				if item.Status.Active() {
					count++
				}
			}
			break
		}
	}
	return count
}
