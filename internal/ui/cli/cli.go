// Package cli is the pathres command line.
package cli

import (
	"io"

	"github.com/spf13/cobra"
)

const versionString = "0.3.0"

type globalOptions struct {
	configPath string
	verbose    bool
	out        io.Writer
}

// Run executes the command line and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{out: stdout}
	var cleanupLogs func()

	root := &cobra.Command{
		Use:           "pathres",
		Short:         "Resolves Rust paths and generic instantiations in a workspace",
		Version:       versionString,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cleanupLogs = configureLogging(stderr, opts.verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cleanupLogs != nil {
				cleanupLogs()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to pathres.toml (default: detected from the working directory)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newResolveCmd(opts),
		newRebindCmd(opts),
		newSettersCmd(opts),
		newWatchCmd(opts),
		newCratesCmd(opts),
		newCheckCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}
