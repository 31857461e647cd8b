package claude

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/strrl/claude-lens/pkg/models"
)

// allowedPath cleans path and checks that one of its parent directories is
// named .claude
func allowedPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(abs)), "/") {
		if part == ".claude" {
			return abs, nil
		}
	}
	return "", fmt.Errorf("%s is outside a .claude directory: %w", path, models.ErrAccessDenied)
}

// ReadFile reads a file below a .claude directory
func (s *Store) ReadFile(path string) (string, error) {
	clean, err := allowedPath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(clean)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read %s: %w: %w", clean, models.ErrNotFound, err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w: %w", clean, models.ErrIO, err)
	}
	return string(data), nil
}

// WriteFile writes a file below a .claude directory, creating parents as needed
func (s *Store) WriteFile(path, content string) error {
	clean, err := allowedPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w: %w", clean, models.ErrIO, err)
	}
	if err := os.WriteFile(clean, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w: %w", clean, models.ErrIO, err)
	}
	s.logger.WithField("path", clean).Info("wrote file")
	return nil
}
