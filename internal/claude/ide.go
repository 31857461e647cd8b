package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/strrl/claude-lens/pkg/models"
)

// IdeLocks reads every ide/*.lock file. Unreadable or malformed locks are skipped.
func (s *Store) IdeLocks(ctx context.Context) ([]models.IdeInfo, error) {
	dir := filepath.Join(s.dir, "ide")
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.IdeInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ide directory: %w: %w", models.ErrIO, err)
	}

	locks := []models.IdeInfo{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lock" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.WithError(err).WithField("file", path).Debug("skipping unreadable ide lock")
			continue
		}
		var info models.IdeInfo
		if err := json.Unmarshal(data, &info); err != nil {
			s.logger.WithError(err).WithField("file", path).Debug("skipping malformed ide lock")
			continue
		}
		locks = append(locks, info)
	}
	return locks, nil
}

// attachIdeInfo sets IdeInfo on sessions whose project lies inside a workspace
// folder of a running IDE. The deepest matching folder wins.
func (s *Store) attachIdeInfo(ctx context.Context, list []models.Session) {
	locks, err := s.IdeLocks(ctx)
	if err != nil {
		s.logger.WithError(err).Debug("ignoring ide locks")
		return
	}
	if len(locks) == 0 {
		return
	}
	for i := range list {
		list[i].IdeInfo = matchIde(locks, list[i].ProjectPath)
	}
}

func matchIde(locks []models.IdeInfo, projectPath string) *models.IdeInfo {
	type candidate struct {
		info  models.IdeInfo
		depth int
	}
	var matches []candidate
	for _, lock := range locks {
		for _, folder := range lock.WorkspaceFolders {
			if withinDir(folder, projectPath) {
				matches = append(matches, candidate{lock, len(folder)})
			}
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].depth > matches[j].depth })
	info := matches[0].info
	return &info
}

func withinDir(dir, path string) bool {
	dir = filepath.Clean(dir)
	path = filepath.Clean(path)
	if dir == path {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
