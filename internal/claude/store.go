// Package claude answers queries over a Claude Code data directory.
package claude

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/strrl/claude-lens/internal/cache"
	"github.com/strrl/claude-lens/internal/sessions"
	"github.com/strrl/claude-lens/pkg/models"
)

// Config configures a Store
type Config struct {
	ClaudeDir    string
	PreviewChars int
	SniffLines   int
	Workers      int
	Logger       *logrus.Logger
}

// Store is the query interface over ~/.claude. Decoded message lists are
// cached until the file watcher invalidates them; session summaries are
// recomputed on every call.
type Store struct {
	// changedMu serializes ChangedSessions so a change is reported once
	changedMu sync.Mutex

	dir        string
	scanner    *sessions.Scanner
	messages   *cache.MessageCache
	timestamps *cache.TimestampTable
	logger     *logrus.Logger
}

// New creates a store over cfg.ClaudeDir
func New(cfg Config) *Store {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Store{
		dir: cfg.ClaudeDir,
		scanner: sessions.NewScanner(sessions.ScannerConfig{
			ClaudeDir:    cfg.ClaudeDir,
			PreviewChars: cfg.PreviewChars,
			SniffLines:   cfg.SniffLines,
			Workers:      cfg.Workers,
			Logger:       cfg.Logger,
		}),
		messages:   cache.NewMessageCache(cfg.Logger),
		timestamps: cache.NewTimestampTable(),
		logger:     cfg.Logger,
	}
}

// Dir returns the data directory
func (s *Store) Dir() string {
	return s.dir
}

// ProjectsDir returns the directory holding per-project session logs
func (s *Store) ProjectsDir() string {
	return s.scanner.ProjectsDir()
}

// ListSessions returns every session, newest conversation first
func (s *Store) ListSessions(ctx context.Context) ([]models.Session, error) {
	list, err := s.scanner.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	s.attachIdeInfo(ctx, list)
	return list, nil
}

// ChangedSessions returns the sessions whose log file was modified since the
// previous call, or never seen before. Calling it twice without writes in
// between returns nothing the second time.
func (s *Store) ChangedSessions(ctx context.Context) ([]models.Session, error) {
	s.changedMu.Lock()
	defer s.changedMu.Unlock()

	files, err := s.scanner.Files()
	if err != nil {
		return nil, fmt.Errorf("failed to list session files: %w", err)
	}

	var changed []sessions.SessionFile
	for _, f := range files {
		if s.timestamps.Changed(f.Path, f.ModTime) {
			changed = append(changed, f)
		}
	}
	if len(changed) == 0 {
		return []models.Session{}, nil
	}

	// Resolution needs every file of a directory, not only the changed ones
	projects := s.scanner.Resolve(ctx, files)
	list, err := s.scanner.Reconstruct(ctx, changed, projects)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct changed sessions: %w", err)
	}
	// Observe the listing mtime so a write racing the reconstruction shows up next call
	for _, f := range changed {
		s.timestamps.Observe(f.Path, f.ModTime)
	}

	sessions.SortByFirstTimestamp(list)
	s.attachIdeInfo(ctx, list)
	s.logger.WithField("count", len(list)).Debug("changed sessions")
	return list, nil
}

// SessionMessages returns the decoded messages of a session in file order
func (s *Store) SessionMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	return s.messages.GetOrLoad(ctx, sessionID, func(ctx context.Context) ([]models.Message, error) {
		path, err := sessions.FindSessionFile(s.ProjectsDir(), sessionID)
		if err != nil {
			return nil, err
		}
		return sessions.ReadMessages(ctx, path, sessionID)
	})
}

// ProjectSummary groups sessions by project, most recently modified first
func (s *Store) ProjectSummary(ctx context.Context) ([]models.ProjectSummary, error) {
	list, err := s.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	summaries := sessions.SummarizeProjects(list)

	todoFiles, err := s.todoFiles()
	if err != nil {
		return nil, err
	}
	byProject := make(map[string][]string)
	for _, sess := range list {
		byProject[sess.ProjectPath] = append(byProject[sess.ProjectPath], sess.SessionID)
	}
	for i := range summaries {
		summaries[i].ActiveTodos = countActiveTodos(todoFiles, byProject[summaries[i].ProjectPath])
	}
	return summaries, nil
}

// Stats returns corpus-wide totals
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	list, err := s.scanner.ListSessions(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	commands, err := s.CommandHistory(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	todos, err := s.Todos(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return sessions.CorpusStats(list, commands, todos), nil
}

// InvalidateSession drops the cached messages of one session
func (s *Store) InvalidateSession(sessionID string) {
	s.messages.Invalidate(sessionID)
}

// InvalidateAll drops every cached message list
func (s *Store) InvalidateAll() {
	s.messages.Clear()
}
