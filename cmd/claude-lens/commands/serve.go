package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/strrl/claude-lens/internal/api"
	"github.com/strrl/claude-lens/internal/config"
	"github.com/strrl/claude-lens/internal/watch"
)

// NewServeCommand creates the serve command
func NewServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API over HTTP",
		Long: `Serve sessions, projects, todos, settings and command history as JSON under
/api/v1. With watching enabled, file changes invalidate cached data and are
pushed to /ws/events subscribers.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}

	flags := cmd.Flags()
	flags.String("host", "", "listen host (default 127.0.0.1)")
	flags.Int("port", 0, "listen port (default 7878)")
	flags.Bool("watch", true, "watch the data directory for changes")

	cobra.CheckErr(config.BindFlags(a.v, flags, map[string]string{
		"server.host":   "host",
		"server.port":   "port",
		"watch.enabled": "watch",
	}))

	return cmd
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := api.Options{Logger: a.logger}

	if a.cfg.Watch.Enabled {
		hub := watch.NewHub()
		defer hub.Close()

		watcher, err := a.startWatcher(ctx, hub)
		if err != nil {
			a.logger.WithError(err).Warn("file watching disabled")
		} else {
			defer watcher.Stop()
			opts.Hub = hub
		}
	}

	app := api.NewApp(a.store, opts)
	return api.Serve(ctx, app, a.cfg.Addr(), a.logger)
}

func (a *app) startWatcher(ctx context.Context, hub *watch.Hub) (*watch.Watcher, error) {
	watcher, err := watch.New(watch.Config{
		Root:        a.cfg.ClaudeDir,
		Debounce:    a.cfg.Watch.Debounce,
		Invalidator: a.store,
		Hub:         hub,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := watcher.Start(ctx); err != nil {
		watcher.Stop()
		return nil, err
	}
	return watcher, nil
}
