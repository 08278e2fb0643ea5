package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	coreapp "pathres/internal/core/app"
	coreerrors "pathres/internal/core/errors"
	"pathres/internal/data/history"
	"pathres/internal/engine/resolver"
	"pathres/internal/shared/util"
	"pathres/internal/ui/report/formats"
)

func newCheckCmd(opts *globalOptions) *cobra.Command {
	var (
		format string
		output string
		record bool
	)
	cmd := &cobra.Command{
		Use:   "check [file...]",
		Short: "Report references that do not resolve to exactly one declaration",
		Long: `Check diagnoses every reference in the workspace, or only those written in
the given files, and exits non-zero when any is unresolved, ambiguous,
cyclic or carries too many generic arguments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "sarif" {
				return coreerrors.AddContext(coreerrors.New(coreerrors.CodeValidationError, "unknown output format"), coreerrors.CtxOperation, format)
			}
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close(context.Background())

			files := make([]string, 0, len(args))
			for _, a := range args {
				abs, err := filepath.Abs(a)
				if err != nil {
					return err
				}
				files = append(files, abs)
			}

			var problems []resolver.UnresolvedReference
			err = s.app.Query(func(r *resolver.Resolver) error {
				if len(files) > 0 {
					problems = r.FindUnresolvedForPaths(files)
				} else {
					problems = r.FindUnresolved()
				}
				return nil
			})
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if format == "sarif" {
				data, err := formats.GenerateSARIF(s.app.Paths.Root, versionString, problems)
				if err != nil {
					return coreerrors.Wrap(err, coreerrors.CodeInternal, "render SARIF")
				}
				buf.Write(data)
				buf.WriteByte('\n')
			} else {
				printProblems(&buf, s.app.Paths.Root, problems)
			}
			if output != "" {
				if err := util.WriteFileWithDirs(output, buf.Bytes(), 0o644); err != nil {
					return coreerrors.AddContext(coreerrors.Wrap(err, coreerrors.CodeWriteAccess, "write report"), coreerrors.CtxPath, output)
				}
			} else if _, err := opts.out.Write(buf.Bytes()); err != nil {
				return err
			}

			if record || s.app.Config.History.Enabled {
				if err := recordRun(s.app.Paths.HistoryPath, s.app.Paths.Root, s.app.CurrentUpdate(), problems); err != nil {
					slog.Warn("record check run", "error", err)
				}
			}

			if len(problems) > 0 {
				return coreerrors.AddContext(coreerrors.New(coreerrors.CodeUnresolved, "workspace has unresolved references"), coreerrors.CtxCount, len(problems))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or sarif")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&record, "record", false, "Record the run in the history database")
	return cmd
}

func printProblems(w io.Writer, root string, problems []resolver.UnresolvedReference) {
	for _, p := range problems {
		loc := p.Path.Location
		fmt.Fprintf(w, "%s:%d:%d %s %s\n", util.RelSlash(root, loc.File), loc.Line, loc.Column,
			warnStyle.Render(string(p.Code)), p.Path.Text())
	}
	if len(problems) == 0 {
		fmt.Fprintln(w, successStyle.Render("all references resolve"))
		return
	}
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d problems", len(problems))))
}

func recordRun(path, key string, u coreapp.Update, problems []resolver.UnresolvedReference) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	run := history.Run{
		WorkspaceKey:   key,
		Timestamp:      time.Now().UTC(),
		SnapshotID:     u.SnapshotID.String(),
		FileCount:      u.Files,
		DeclCount:      u.Decls,
		ReferenceCount: u.References,
	}
	for _, p := range problems {
		switch p.Code {
		case coreerrors.CodeAmbiguous:
			run.Ambiguous++
		case coreerrors.CodeCyclicAlias:
			run.CyclicAliases++
		case coreerrors.CodeMalformedArguments:
			run.MalformedArguments++
		default:
			run.Unresolved++
		}
	}
	return store.SaveRun(run)
}
