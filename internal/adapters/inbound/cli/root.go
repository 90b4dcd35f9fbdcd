package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	path     string
	logLevel string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "gatekeep",
		Short: "Fast, layered code-quality gate",
		Long: "gatekeep schedules formatters, linters and analyzers in tiers, runs them in the " +
			"background for git hooks and blocks in CI, and remembers the last verdict.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.path, "path", ".", "Project root")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newRunCmd(g))
	cmd.AddCommand(newWorkerCmd(g))
	cmd.AddCommand(newPlanCmd(g))
	cmd.AddCommand(newStatusCmd(g))
	cmd.AddCommand(newHistoryCmd(g))
	cmd.AddCommand(newWorkersCmd(g))
	cmd.AddCommand(newLogsCmd(g))
	cmd.AddCommand(newPruneCmd(g))
	cmd.AddCommand(newMCPCmd(g))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs the command tree with ctx, which is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// open wires the application for a foreground command.
func (g *globalFlags) open(cmd *cobra.Command) (*app, error) {
	opts := appOptions{root: g.path, logLevel: g.logLevel}
	if g.verbose {
		opts.logOut = cmd.ErrOrStderr()
	}
	return newApp(opts)
}
