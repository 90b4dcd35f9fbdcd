package cli

import (
	"github.com/spf13/cobra"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/launcher"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/logging"
	"github.com/gatekeep/gatekeep/internal/domain"
)

// newWorkerCmd is the body of a detached background run. Its stdout and
// stderr are the run log.
func newWorkerCmd(g *globalFlags) *cobra.Command {
	var (
		spec domain.WorkerSpec
		mode string
	)

	cmd := &cobra.Command{
		Use:    launcher.WorkerCommand + " -- [files...]",
		Short:  "Run checks as a detached background worker",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := domain.ParseMode(mode)
			if err != nil {
				return err
			}
			spec.Mode = m
			spec.Files = args
			if spec.Root == "" {
				spec.Root = g.path
			}

			a, err := newApp(appOptions{
				root:     spec.Root,
				logLevel: g.logLevel,
				mode:     m,
				logOut:   cmd.OutOrStdout(),
				worker:   true,
			})
			if err != nil {
				return err
			}
			spec.Root = a.root

			ctx := logging.WithRunID(cmd.Context(), spec.RunID)
			rec, err := a.orch.RunWorker(ctx, spec)
			if err != nil {
				return err
			}
			return verdict(rec)
		},
	}

	cmd.Flags().StringVar(&spec.RunID, "run-id", "", "Run id assigned by the parent")
	cmd.Flags().StringVar(&mode, "mode", string(domain.ModeHook), "Invocation mode")
	cmd.Flags().StringVar(&spec.Root, "root", "", "Project root")
	cmd.Flags().StringVar(&spec.LogPath, "log", "", "Run log path")
	cmd.Flags().BoolVar(&spec.Fix, "fix", false, "Fixes were explicitly requested")
	_ = cmd.MarkFlagRequired("run-id")

	return cmd
}
