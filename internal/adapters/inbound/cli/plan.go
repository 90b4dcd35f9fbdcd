package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/tui"
	"github.com/gatekeep/gatekeep/internal/application"
)

func newPlanCmd(g *globalFlags) *cobra.Command {
	var (
		mode       string
		fix        bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "plan [files...]",
		Short: "Show which checks and fixes a run would execute",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			m, err := a.resolveMode(mode)
			if err != nil {
				return err
			}
			files, err := a.dispatcher.Targets(m, a.root, args)
			if err != nil {
				return err
			}
			plan, err := a.dispatcher.Plan(application.PlanRequest{Mode: m, Root: a.root, Files: files, ExplicitFix: fix})
			if err != nil {
				return err
			}
			fixes, err := a.fixes.Preview(m, a.root, files, fix)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, map[string]any{
					"mode":  m,
					"files": files,
					"plan":  plan,
					"fixes": fixes,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderPlan(plan, a.dispatcher.Profile(m)))
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderFixPreview(fixes))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Invocation mode (default: detected)")
	cmd.Flags().BoolVar(&fix, "fix", false, "Assume fixes are explicitly requested")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
