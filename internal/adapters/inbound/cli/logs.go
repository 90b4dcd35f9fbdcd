package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newLogsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs [run-id]",
		Short: "Print the log of a run (default: the most recent)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			path, err := a.orch.LogPath(id)
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("no log at %s", path)
			}
			if err != nil {
				return fmt.Errorf("opening log: %w", err)
			}
			defer f.Close()
			if _, err := io.Copy(cmd.OutOrStdout(), f); err != nil {
				return fmt.Errorf("reading log: %w", err)
			}
			return nil
		},
	}
	return cmd
}

func newPruneCmd(g *globalFlags) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete completed runs older than --max-age",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			n, err := a.orch.Prune(maxAge)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs.\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Age threshold (default: settings history_max_age)")
	return cmd
}
