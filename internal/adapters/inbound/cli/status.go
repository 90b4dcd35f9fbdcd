package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/report"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/tui"
	"github.com/gatekeep/gatekeep/internal/domain"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the most recent run",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			rec, err := a.orch.MostRecentRun()
			if err != nil {
				return err
			}
			if rec == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}
			if jsonOutput {
				return report.WriteDocument(cmd.OutOrStdout(), rec)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderRun(rec))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryCmd(g *globalFlags) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			runs, err := a.orch.RunHistory(limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, runs)
			}
			fmt.Fprint(cmd.OutOrStdout(), report.RenderHistory(runs, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum runs to show (default: settings history_limit)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newWorkersCmd(g *globalFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "workers",
		Short: "List background workers that are still running",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			live, err := a.orch.ListActiveWorkers()
			if err != nil {
				return err
			}
			if jsonOutput {
				if live == nil {
					live = []domain.WorkerMarker{}
				}
				return writeJSON(cmd, live)
			}
			rows := make([]report.WorkerRow, 0, len(live))
			for _, m := range live {
				rows = append(rows, report.WorkerRow{Marker: m, Alive: true})
			}
			fmt.Fprint(cmd.OutOrStdout(), report.RenderWorkers(rows, time.Now()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
