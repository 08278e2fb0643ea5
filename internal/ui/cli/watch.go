package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	coreapp "pathres/internal/core/app"
	"pathres/internal/core/config"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the workspace loaded and reload it as files change",
		Long: `Watch loads the workspace, then reloads it whenever a source file or the
config file changes, printing one line per reload. With metrics enabled it
serves /metrics and /health.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer s.Close(context.Background())

			printUpdate(opts, s.app.CurrentUpdate())
			s.app.SetUpdateHandler(func(u coreapp.Update) { printUpdate(opts, u) })
			if err := s.app.StartWatcher(); err != nil {
				return err
			}

			if s.configPath != "" {
				cw := config.NewWatcher(s.configPath, func(cfg *config.Config) {
					slog.Info("config changed, reloading workspace", "path", s.configPath)
					if err := s.app.UpdateConfig(ctx, cfg, s.base); err != nil {
						slog.Warn("apply config", "error", err)
					}
				})
				if err := cw.Start(ctx); err != nil {
					slog.Warn("config watcher not started", "error", err)
				} else {
					defer cw.Stop()
				}
			}

			cfg := s.app.Config
			if cfg.Observability.EnableMetrics || metricsAddr != "" {
				addr := metricsAddr
				if addr == "" {
					addr = cfg.Observability.MetricsAddress
				}
				srv := NewObservabilityServer(addr, coreapp.NewHealthService(s.app))
				if err := srv.Start(ctx); err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Stop(shutdownCtx)
				}()
			}

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "Serve /metrics and /health on this address")
	return cmd
}

func printUpdate(opts *globalOptions, u coreapp.Update) {
	kind := "local"
	if u.Structural {
		kind = "structural"
	}
	line := fmt.Sprintf("%s %s files=%d decls=%d refs=%d changed=%d (%s) %s",
		time.Now().Format("15:04:05"), kind, u.Files, u.Decls, u.References, len(u.Changed),
		u.Duration.Round(time.Millisecond), u.SnapshotID)
	if u.Err != nil {
		fmt.Fprintln(opts.out, warnStyle.Render(line+" with errors"))
		return
	}
	fmt.Fprintln(opts.out, statusStyle.Render(line))
}
