package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	coreapp "pathres/internal/core/app"
	"pathres/internal/core/config"
	"pathres/internal/core/errors"
	"pathres/internal/shared/observability"
)

func configureLogging(output io.Writer, verbose bool) func() {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	previous := slog.Default()
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return func() { slog.SetDefault(previous) }
}

// loadConfig reads the explicit config file or the one detected from cwd,
// falling back to defaults. The returned base is the directory relative
// workspace paths are anchored at; path is "" when no file was used.
func loadConfig(explicit, cwd string) (cfg *config.Config, path, base string, err error) {
	path = explicit
	if path == "" {
		path = config.DetectConfigFile(cwd)
	}
	if path == "" {
		slog.Debug("no config file found, using defaults", "cwd", cwd)
		return config.DefaultConfig(), "", cwd, nil
	}
	cfg, err = config.Load(path)
	if err != nil {
		return nil, "", "", errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "load config"), errors.CtxPath, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", "", err
	}
	slog.Debug("loaded config", "path", abs)
	return cfg, abs, filepath.Dir(abs), nil
}

type session struct {
	app        *coreapp.App
	configPath string
	base       string
	shutdown   func(context.Context) error
}

// openSession loads the configuration, installs tracing when enabled and
// loads the workspace. A partially loaded workspace is kept and its
// problems are logged.
func openSession(ctx context.Context, opts *globalOptions) (*session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "detect working directory")
	}
	cfg, path, base, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		return nil, err
	}

	shutdown := func(context.Context) error { return nil }
	if cfg.Observability.EnableTracing {
		shutdown, err = observability.SetupTracing(ctx, observability.TracingConfig{
			Endpoint:    cfg.Observability.OTLPEndpoint,
			Insecure:    true,
			ServiceName: cfg.Observability.ServiceName,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "set up tracing")
		}
	}

	a, err := coreapp.New(cfg, base)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	if _, err := a.Load(ctx); err != nil {
		if a.CurrentUpdate().Err == nil {
			_ = shutdown(ctx)
			return nil, err
		}
		slog.Warn("workspace loaded with errors", "error", err)
	}
	return &session{app: a, configPath: path, base: base, shutdown: shutdown}, nil
}

func (s *session) Close(ctx context.Context) {
	if err := s.app.StopWatcher(); err != nil {
		slog.Warn("stop watcher", "error", err)
	}
	if err := s.shutdown(ctx); err != nil {
		slog.Warn("flush traces", "error", err)
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("error: "+err.Error()))
}
