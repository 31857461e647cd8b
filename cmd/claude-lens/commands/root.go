package commands

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/strrl/claude-lens/internal/claude"
	"github.com/strrl/claude-lens/internal/config"
	"github.com/strrl/claude-lens/internal/logging"
	"github.com/strrl/claude-lens/internal/sessions"
	"github.com/strrl/claude-lens/internal/tui"
	"github.com/strrl/claude-lens/pkg/models"
)

// app is the state shared by every command, filled in before a command runs
type app struct {
	v       *viper.Viper
	cfgFile string
	debug   bool
	output  string

	cfg    *config.Config
	logger *logrus.Logger
	store  *claude.Store
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "claude-lens",
		Short: "Browse, search and resume Claude Code sessions",
		Long: `claude-lens reads the Claude Code data directory (~/.claude) and presents
sessions, projects, todos, settings and command history. Without a subcommand it
opens a TUI browser and resumes the selected session.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runBrowse,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./config.yaml or ~/.claude-lens/config.yaml)")
	flags.String("claude-dir", "", "Claude data directory (default ~/.claude)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.debug, "debug", false, "Run in debug mode (list sessions without TUI)")
	flags.StringVarP(&a.output, "output", "o", "text", "output format: text, json, yaml")

	cobra.CheckErr(config.BindFlags(a.v, flags, map[string]string{
		"claude_dir": "claude-dir",
		"log.level":  "log-level",
	}))

	rootCmd.AddCommand(NewShowCommand(a))
	rootCmd.AddCommand(NewServeCommand(a))
	rootCmd.AddCommand(NewSQLCommand(a))
	rootCmd.AddCommand(NewDebugCommand(a))
	rootCmd.AddCommand(NewResumeCommand(a))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	switch a.output {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}

	a.cfg = cfg
	a.logger = logger
	a.store = claude.New(claude.Config{
		ClaudeDir:    cfg.ClaudeDir,
		PreviewChars: cfg.PreviewChars,
		SniffLines:   cfg.Resolver.SniffLines,
		Workers:      cfg.Workers,
		Logger:       logger,
	})
	logger.WithField("claude_dir", cfg.ClaudeDir).Debug("store ready")
	return nil
}

func (a *app) runBrowse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Debug mode, or output that is not a terminal: list projects without TUI
	if a.debug || !isTerminal(os.Stdout) {
		return a.runDebugMode(cmd)
	}

	executor := sessions.NewAsyncExecutor(a.cfg.Workers, a.logger)
	executor.Start()
	defer executor.Close()

	selectedSession, err := tui.ShowTUI(ctx, a.store, executor, a.cfg.PreviewChars)
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if selectedSession == nil {
		return nil
	}

	return sessions.ExecuteClaudeResume(selectedSession.SessionID, selectedSession.ProjectPath)
}

func (a *app) runDebugMode(cmd *cobra.Command) error {
	ctx := cmd.Context()
	projects, err := a.store.ProjectSummary(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No projects found")
		return nil
	}

	list, err := a.store.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch sessions: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "=== Projects and Sessions ===")
	for i, project := range projects {
		fmt.Fprintf(w, "\n%d. Project: %s\n", i+1, project.Name)
		fmt.Fprintf(w, "   Path: %s\n", project.ProjectPath)
		fmt.Fprintf(w, "   Sessions: %d\n", project.SessionCount)
		fmt.Fprintf(w, "   Last Activity: %s\n", formatTime(project.LastActivity))

		fmt.Fprintln(w, "   Recent sessions:")
		shown := 0
		for _, session := range list {
			if session.ProjectPath != project.ProjectPath {
				continue
			}
			if shown >= 3 {
				break
			}
			fmt.Fprintf(w, "   - %s (Session: %s)\n", formatTime(session.FirstTimestamp), session.SessionID)
			shown++
		}
	}
	return nil
}

// NewResumeCommand creates the resume command
func NewResumeCommand(a *app) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Resume a session in its project directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.findSession(cmd, args[0])
			if err != nil {
				return err
			}
			if printOnly {
				fmt.Fprintln(cmd.OutOrStdout(), sessions.ResumeCommand(*session))
				return nil
			}
			return sessions.ExecuteClaudeResume(session.SessionID, session.ProjectPath)
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the resume command instead of running it")
	return cmd
}

func (a *app) findSession(cmd *cobra.Command, sessionID string) (*models.Session, error) {
	list, err := a.store.ListSessions(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	for _, session := range list {
		if session.SessionID == sessionID {
			s := session
			return &s, nil
		}
	}
	return nil, fmt.Errorf("session '%s': %w", sessionID, models.ErrNotFound)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
