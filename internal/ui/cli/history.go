package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pathres/internal/core/config"
	"pathres/internal/core/errors"
	"pathres/internal/data/history"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var (
		since  time.Duration
		window time.Duration
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded check runs and how the problem count moved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return errors.Wrap(err, errors.CodeInternal, "detect working directory")
			}
			cfg, _, base, err := loadConfig(opts.configPath, cwd)
			if err != nil {
				return err
			}
			paths, err := config.ResolvePaths(cfg, base)
			if err != nil {
				return errors.Wrap(err, errors.CodeValidationError, "resolve workspace paths")
			}
			if _, err := os.Stat(paths.HistoryPath); err != nil {
				return errors.AddContext(errors.New(errors.CodeNotFound, "no check runs recorded; run `pathres check --record` first"), errors.CtxPath, paths.HistoryPath)
			}

			store, err := history.Open(paths.HistoryPath)
			if err != nil {
				return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open history"), errors.CtxPath, paths.HistoryPath)
			}
			defer store.Close()

			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			runs, err := store.LoadRuns(paths.Root, from)
			if err != nil {
				return errors.Wrap(err, errors.CodeInternal, "load history")
			}
			report, err := history.BuildTrendReport(paths.Root, runs, window)
			if err != nil {
				return errors.Wrap(err, errors.CodeNotFound, "build trend report")
			}

			fmt.Fprintln(opts.out, titleStyle.Render(fmt.Sprintf("%d runs", report.RunCount))+" "+statusStyle.Render("window "+report.Window))
			for _, p := range report.Points {
				delta := fmt.Sprintf("%+d", p.DeltaProblems)
				switch {
				case p.DeltaProblems > 0:
					delta = warnStyle.Render(delta)
				case p.DeltaProblems < 0:
					delta = successStyle.Render(delta)
				}
				fmt.Fprintf(opts.out, "%s problems=%d (%s) avg=%.2f refs=%d decls=%d\n",
					p.Timestamp.Local().Format(time.DateTime), p.Problems(), delta, p.AvgProblems, p.ReferenceCount, p.DeclCount)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&since, "since", 0, "Only show runs newer than this, e.g. 168h")
	cmd.Flags().DurationVar(&window, "window", 24*time.Hour, "Window of the moving average")
	return cmd
}
