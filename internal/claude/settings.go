package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/strrl/claude-lens/pkg/models"
)

// SettingsPath returns the location of settings.json
func (s *Store) SettingsPath() string {
	return filepath.Join(s.dir, "settings.json")
}

// Settings decodes settings.json. A missing file is ErrNotFound and malformed
// JSON is ErrDecode; no defaults are substituted.
func (s *Store) Settings(ctx context.Context) (*models.Settings, error) {
	data, err := os.ReadFile(s.SettingsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("settings file: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w: %w", models.ErrIO, err)
	}

	var settings models.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w: %w", models.ErrDecode, err)
	}
	return &settings, nil
}
