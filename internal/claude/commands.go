package claude

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/strrl/claude-lens/pkg/models"
)

// commandLogLayout is the `date` output used in command_history.log,
// e.g. "Thu Jul 17 15:18:23 JST 2025"
const commandLogLayout = time.UnixDate

// CommandHistory parses command_history.log, newest first. Lines that do not
// match "[<timestamp>] <user>: <command>" are skipped.
func (s *Store) CommandHistory(ctx context.Context) ([]models.CommandLogEntry, error) {
	path := filepath.Join(s.dir, "command_history.log")
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.CommandLogEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open command history: %w: %w", models.ErrIO, err)
	}
	defer f.Close()

	entries := []models.CommandLogEntry{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, ok := ParseCommandLine(scanner.Text())
		if !ok {
			s.logger.WithField("line", scanner.Text()).Debug("skipping command history line")
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read command history: %w: %w", models.ErrIO, err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

// ParseCommandLine parses one command history line. A timestamp that cannot
// be parsed is replaced by the current time.
func ParseCommandLine(line string) (models.CommandLogEntry, bool) {
	start := strings.IndexByte(line, '[')
	end := strings.IndexByte(line, ']')
	if start < 0 || end < start {
		return models.CommandLogEntry{}, false
	}
	rest, ok := strings.CutPrefix(line[end+1:], " ")
	if !ok {
		return models.CommandLogEntry{}, false
	}
	user, command, ok := strings.Cut(rest, ": ")
	if !ok || user == "" || command == "" {
		return models.CommandLogEntry{}, false
	}

	ts, err := time.Parse(commandLogLayout, strings.TrimSpace(line[start+1:end]))
	if err != nil {
		ts = time.Now()
	}
	return models.CommandLogEntry{
		Timestamp: ts.UTC(),
		User:      user,
		Command:   command,
	}, true
}
