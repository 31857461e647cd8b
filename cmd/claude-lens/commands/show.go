package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/strrl/claude-lens/internal/sessions"
	"github.com/strrl/claude-lens/pkg/models"
)

// NewShowCommand creates the show command
func NewShowCommand(a *app) *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show projects, sessions, messages and other data without TUI",
		Long: `Show the contents of the Claude data directory in a non-interactive format.
Every subcommand honours --output text|json|yaml.`,
	}

	showCmd.AddCommand(
		a.showProjectsCommand(),
		a.showSessionsCommand(),
		a.showMessagesCommand(),
		a.showExportCommand(),
		a.showStatsCommand(),
		a.showTodosCommand(),
		a.showCommandsCommand(),
		a.showSettingsCommand(),
		a.showIdeCommand(),
	)
	return showCmd
}

func (a *app) showProjectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects, most recently active first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.store.ProjectSummary(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch projects: %w", err)
			}

			return render(cmd.OutOrStdout(), a.output, projects, func(w io.Writer) error {
				if len(projects) == 0 {
					fmt.Fprintln(w, "No projects found")
					return nil
				}

				fmt.Fprintln(w, "Projects:")
				fmt.Fprintln(w, "=========")
				for i, project := range projects {
					fmt.Fprintf(w, "%d. %s\n", i+1, project.Name)
					fmt.Fprintf(w, "   Path: %s\n", project.ProjectPath)
					fmt.Fprintf(w, "   Sessions: %d (%d messages)\n", project.SessionCount, project.TotalMessages)
					fmt.Fprintf(w, "   Last Activity: %s\n", formatTime(project.LastActivity))
					if project.ActiveTodos > 0 {
						fmt.Fprintf(w, "   Active Todos: %d\n", project.ActiveTodos)
					}
					if project.LatestMessage != nil {
						fmt.Fprintf(w, "   Latest: %s\n", truncateString(*project.LatestMessage, 80))
					}
					if project.IdeInfo != nil {
						fmt.Fprintf(w, "   IDE: %s\n", project.IdeInfo.IdeName)
					}
					fmt.Fprintln(w)
				}
				return nil
			})
		},
	}
}

func (a *app) showSessionsCommand() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "sessions [project]",
		Short: "List sessions, optionally for one project (name or path)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var list []models.Session
			var err error
			if query != "" {
				list, err = a.store.SearchSessions(ctx, query)
			} else {
				list, err = a.store.ListSessions(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to fetch sessions: %w", err)
			}

			if len(args) == 1 {
				list = filterByProject(list, args[0])
			}

			return render(cmd.OutOrStdout(), a.output, list, func(w io.Writer) error {
				if len(list) == 0 {
					fmt.Fprintln(w, "No sessions found")
					return nil
				}

				rows := make([][]string, 0, len(list))
				for _, s := range list {
					branch := ""
					if s.GitBranch != nil {
						branch = *s.GitBranch
					}
					preview := ""
					if s.LatestContentPreview != nil {
						preview = *s.LatestContentPreview
					}
					state := ""
					if s.IsProcessing {
						state = "processing"
					}
					rows = append(rows, []string{
						s.SessionID,
						s.ProjectName(),
						formatTime(s.FirstTimestamp),
						formatTime(s.LastTimestamp),
						fmt.Sprint(s.MessageCount),
						branch,
						state,
						preview,
					})
				}
				writeTable(w, []string{"SESSION", "PROJECT", "STARTED", "LAST", "MSGS", "BRANCH", "STATE", "PREVIEW"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "only sessions whose project path, id or branch contains this text")
	return cmd
}

// filterByProject keeps sessions whose project name or path equals project
func filterByProject(list []models.Session, project string) []models.Session {
	matched := []models.Session{}
	for _, s := range list {
		if s.ProjectPath == project || s.ProjectName() == project {
			matched = append(matched, s)
		}
	}
	return matched
}

func (a *app) showMessagesCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "messages <session-id>",
		Short: "Show the messages of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]
			messages, err := a.store.SessionMessages(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("failed to fetch messages: %w", err)
			}
			if limit > 0 && len(messages) > limit {
				messages = messages[len(messages)-limit:]
			}

			return render(cmd.OutOrStdout(), a.output, messages, func(w io.Writer) error {
				if len(messages) == 0 {
					fmt.Fprintf(w, "No messages found for session '%s'\n", sessionID)
					return nil
				}

				fmt.Fprintf(w, "Messages for session '%s':\n", sessionID)
				fmt.Fprintln(w, "================================================")
				for i, msg := range messages {
					preview := sessions.MessagePreview(msg, a.cfg.PreviewChars)
					if preview == "" {
						preview = "(no text)"
					}
					stamp := "-"
					if ts, ok := models.MessageTimestamp(msg); ok {
						stamp = formatTime(ts)
					}
					fmt.Fprintf(w, "\n%d. [%s] %s\n   %s\n", i+1, msg.Kind(), stamp, preview)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the last n messages")
	return cmd
}

func (a *app) showExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <session-id>",
		Short: "Print a session's messages as indented JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.store.ExportSession(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to export session: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func (a *app) showStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to compute stats: %w", err)
			}

			return render(cmd.OutOrStdout(), a.output, stats, func(w io.Writer) error {
				fmt.Fprintf(w, "Sessions:        %d\n", stats.TotalSessions)
				fmt.Fprintf(w, "Messages:        %d\n", stats.TotalMessages)
				fmt.Fprintf(w, "Commands:        %d\n", stats.TotalCommands)
				fmt.Fprintf(w, "Active projects: %d\n", stats.ActiveProjects)
				fmt.Fprintf(w, "Pending todos:   %d\n", stats.PendingTodos)
				return nil
			})
		},
	}
}

func (a *app) showTodosCommand() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "todos",
		Short: "List todo items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			todos, err := a.store.Todos(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch todos: %w", err)
			}
			if activeOnly {
				active := []models.TodoItem{}
				for _, t := range todos {
					if t.Status.Active() {
						active = append(active, t)
					}
				}
				todos = active
			}

			return render(cmd.OutOrStdout(), a.output, todos, func(w io.Writer) error {
				if len(todos) == 0 {
					fmt.Fprintln(w, "No todos found")
					return nil
				}
				rows := make([][]string, 0, len(todos))
				for _, t := range todos {
					rows = append(rows, []string{t.ID, string(t.Status), string(t.Priority), t.Content})
				}
				writeTable(w, []string{"ID", "STATUS", "PRIORITY", "CONTENT"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only pending and in-progress items")
	return cmd
}

func (a *app) showCommandsCommand() *cobra.Command {
	var query string
	var limit int

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Show the command history, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var entries []models.CommandLogEntry
			var err error
			if query != "" {
				entries, err = a.store.SearchCommands(ctx, query)
			} else {
				entries, err = a.store.CommandHistory(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to fetch command history: %w", err)
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			return render(cmd.OutOrStdout(), a.output, entries, func(w io.Writer) error {
				if len(entries) == 0 {
					fmt.Fprintln(w, "No commands found")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{formatTime(e.Timestamp), e.User, e.Command})
				}
				writeTable(w, []string{"TIME", "USER", "COMMAND"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "only commands containing this text")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of entries (0 for all)")
	return cmd
}

func (a *app) showSettingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show settings.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.store.Settings(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read settings: %w", err)
			}

			return render(cmd.OutOrStdout(), a.output, settings, func(w io.Writer) error {
				fmt.Fprintf(w, "File: %s\n", a.store.SettingsPath())
				if settings.Model != "" {
					fmt.Fprintf(w, "Model: %s\n", settings.Model)
				}
				p := settings.Permissions
				if p.DefaultMode != "" {
					fmt.Fprintf(w, "Default mode: %s\n", p.DefaultMode)
				}
				if len(p.Allow) > 0 {
					fmt.Fprintf(w, "Allow: %s\n", strings.Join(p.Allow, ", "))
				}
				if len(p.Deny) > 0 {
					fmt.Fprintf(w, "Deny: %s\n", strings.Join(p.Deny, ", "))
				}
				for event, matchers := range settings.Hooks {
					for _, m := range matchers {
						for _, h := range m.Hooks {
							fmt.Fprintf(w, "Hook %s[%s]: %s\n", event, m.Matcher, h.Command)
						}
					}
				}
				return nil
			})
		},
	}
}

func (a *app) showIdeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ide",
		Short: "List running IDE integrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			locks, err := a.store.IdeLocks(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read IDE locks: %w", err)
			}

			return render(cmd.OutOrStdout(), a.output, locks, func(w io.Writer) error {
				if len(locks) == 0 {
					fmt.Fprintln(w, "No IDE integrations found")
					return nil
				}
				rows := make([][]string, 0, len(locks))
				for _, l := range locks {
					rows = append(rows, []string{fmt.Sprint(l.Pid), l.IdeName, l.Transport, strings.Join(l.WorkspaceFolders, ", ")})
				}
				writeTable(w, []string{"PID", "IDE", "TRANSPORT", "WORKSPACES"}, rows)
				return nil
			})
		},
	}
}
