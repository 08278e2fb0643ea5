package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pathres/internal/core/config"
	"pathres/internal/core/errors"
	"pathres/internal/data/crates"
)

func newCratesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crates",
		Short: "Manage the local crate registry index",
	}
	cmd.AddCommand(newCratesImportCmd(opts), newCratesShowCmd(opts))
	return cmd
}

// indexPath locates the crate index database without loading the
// workspace.
func indexPath(opts *globalOptions) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "detect working directory")
	}
	cfg, _, base, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		return "", err
	}
	root := config.ResolveRelative(base, cfg.Workspace.Root)
	return config.ResolveRelative(root, cfg.Crates.IndexPath), nil
}

func newCratesImportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <index-dir-or-file>",
		Short: "Import cargo registry index files into the local index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := indexPath(opts)
			if err != nil {
				return err
			}
			idx, err := crates.OpenSQLiteIndex(path)
			if err != nil {
				return errors.Wrap(err, errors.CodeInternal, "open crate index")
			}
			defer idx.Close()

			info, err := os.Stat(args[0])
			if err != nil {
				return errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "stat index source"), errors.CtxPath, args[0])
			}
			var n int
			if info.IsDir() {
				n, err = idx.ImportDir(cmd.Context(), args[0])
			} else {
				var f *os.File
				if f, err = os.Open(args[0]); err == nil {
					n, err = idx.Import(cmd.Context(), f)
					f.Close()
				}
			}
			if err != nil {
				return errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "import crate index"), errors.CtxPath, args[0])
			}
			fmt.Fprintf(opts.out, "%s %d versions into %s\n", successStyle.Render("imported"), n, path)
			return nil
		},
	}
}

func newCratesShowCmd(opts *globalOptions) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "show <crate>",
		Short: "Show the published versions of a crate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var idx crates.Index
			if from != "" {
				f, err := os.Open(from)
				if err != nil {
					return errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "open index file"), errors.CtxPath, from)
				}
				defer f.Close()
				mem := crates.NewMemoryIndex()
				if err := mem.Import(f); err != nil {
					return errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "read index file"), errors.CtxPath, from)
				}
				idx = mem
			} else {
				path, err := indexPath(opts)
				if err != nil {
					return err
				}
				db, err := crates.OpenSQLiteIndex(path)
				if err != nil {
					return errors.Wrap(err, errors.CodeInternal, "open crate index")
				}
				defer db.Close()
				idx = db
			}
			if !idx.IsReady() {
				return errors.New(errors.CodeNotFound, "crate index is empty; run `pathres crates import` first")
			}
			c, ok := idx.GetCrate(args[0])
			if !ok {
				return errors.AddContext(errors.New(errors.CodeNotFound, "crate not in index"), errors.CtxSymbol, args[0])
			}
			printCrate(opts, c)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Read a registry index file instead of the local index")
	return cmd
}

func printCrate(opts *globalOptions, c crates.Crate) {
	fmt.Fprintln(opts.out, titleStyle.Render(c.Name))
	last, hasLast := c.LastVersion()
	for _, v := range c.Versions {
		line := "  " + v.Version
		switch {
		case v.Yanked:
			line = warnStyle.Render(line + " (yanked)")
		case hasLast && v.Version == last:
			line = successStyle.Render(line + " (latest)")
		}
		if len(v.Features) > 0 {
			line += " " + statusStyle.Render("["+strings.Join(v.Features, ", ")+"]")
		}
		fmt.Fprintln(opts.out, line)
	}
}
