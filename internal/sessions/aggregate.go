package sessions

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/strrl/claude-lens/pkg/models"
	"golang.org/x/sync/errgroup"
)

// ScannerConfig configures a Scanner
type ScannerConfig struct {
	// ClaudeDir is the Claude Code data directory, usually ~/.claude
	ClaudeDir    string
	PreviewChars int
	SniffLines   int
	// Workers bounds how many session files are reconstructed at once
	Workers int
	Logger  *logrus.Logger
}

// Scanner reconstructs sessions from the projects directory
type Scanner struct {
	cfg ScannerConfig
}

// NewScanner creates a scanner, filling unset options with defaults
func NewScanner(cfg ScannerConfig) *Scanner {
	if cfg.PreviewChars <= 0 {
		cfg.PreviewChars = DefaultPreviewChars
	}
	if cfg.SniffLines <= 0 {
		cfg.SniffLines = DefaultSniffLines
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Scanner{cfg: cfg}
}

// ProjectsDir returns the directory holding per-project session logs
func (s *Scanner) ProjectsDir() string {
	return filepath.Join(s.cfg.ClaudeDir, "projects")
}

// PreviewChars returns the configured preview budget
func (s *Scanner) PreviewChars() int {
	return s.cfg.PreviewChars
}

// Files lists all session log files
func (s *Scanner) Files() ([]SessionFile, error) {
	return ListSessionFiles(s.ProjectsDir())
}

// Resolve maps the project directories of files to real project paths
func (s *Scanner) Resolve(ctx context.Context, files []SessionFile) map[string]string {
	return ResolveProjects(ctx, files, s.cfg.SniffLines, s.cfg.Logger)
}

// Reconstruct rebuilds the sessions of files in parallel. The first failing
// file aborts the whole call.
func (s *Scanner) Reconstruct(ctx context.Context, files []SessionFile, projects map[string]string) ([]models.Session, error) {
	out := make([]models.Session, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, f := range files {
		g.Go(func() error {
			projectPath, ok := projects[f.ProjectDir]
			if !ok {
				projectPath = DecodeProjectDir(f.ProjectDir)
			}
			session, err := ReconstructSession(gctx, f.Path, f.SessionID, projectPath, s.cfg.PreviewChars)
			if err != nil {
				return err
			}
			out[i] = session
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSessions reconstructs every session, newest conversation first
func (s *Scanner) ListSessions(ctx context.Context) ([]models.Session, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	sessions, err := s.Reconstruct(ctx, files, s.Resolve(ctx, files))
	if err != nil {
		return nil, err
	}
	SortByFirstTimestamp(sessions)
	s.cfg.Logger.WithField("count", len(sessions)).Debug("listed sessions")
	return sessions, nil
}

// SortByFirstTimestamp orders sessions by conversation start, newest first
func SortByFirstTimestamp(sessions []models.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].FirstTimestamp.Equal(sessions[j].FirstTimestamp) {
			return sessions[i].FirstTimestamp.After(sessions[j].FirstTimestamp)
		}
		return sessions[i].SessionID < sessions[j].SessionID
	})
}

// SummarizeProjects groups sessions by project path. LastActivity is the most
// recent file modification time of the project's session files, and projects
// are ordered by it, newest first.
func SummarizeProjects(sessions []models.Session) []models.ProjectSummary {
	index := make(map[string]int)
	latest := make(map[string]models.Session)
	summaries := []models.ProjectSummary{}

	for _, s := range sessions {
		i, ok := index[s.ProjectPath]
		if !ok {
			i = len(summaries)
			index[s.ProjectPath] = i
			summaries = append(summaries, models.ProjectSummary{
				ProjectPath:  s.ProjectPath,
				Name:         models.ProjectName(s.ProjectPath),
				LastActivity: s.FileModifiedTime,
			})
			latest[s.ProjectPath] = s
		}
		p := &summaries[i]
		p.SessionCount++
		p.TotalMessages += s.MessageCount
		if s.FileModifiedTime.After(p.LastActivity) {
			p.LastActivity = s.FileModifiedTime
		}
		if s.FileModifiedTime.After(latest[s.ProjectPath].FileModifiedTime) {
			latest[s.ProjectPath] = s
		}
		if p.IdeInfo == nil {
			p.IdeInfo = s.IdeInfo
		}
	}

	for i := range summaries {
		summaries[i].LatestMessage = latest[summaries[i].ProjectPath].LatestContentPreview
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if !summaries[i].LastActivity.Equal(summaries[j].LastActivity) {
			return summaries[i].LastActivity.After(summaries[j].LastActivity)
		}
		return summaries[i].ProjectPath < summaries[j].ProjectPath
	})
	return summaries
}

// CorpusStats folds sessions, command history and todos into totals
func CorpusStats(sessions []models.Session, commands []models.CommandLogEntry, todos []models.TodoItem) models.Stats {
	projects := make(map[string]struct{})
	stats := models.Stats{
		TotalSessions: len(sessions),
		TotalCommands: len(commands),
	}
	for _, s := range sessions {
		stats.TotalMessages += s.MessageCount
		projects[s.ProjectPath] = struct{}{}
	}
	stats.ActiveProjects = len(projects)
	for _, t := range todos {
		if t.Status.Active() {
			stats.PendingTodos++
		}
	}
	return stats
}
