package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/prompt"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/report"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/tui"
	"github.com/gatekeep/gatekeep/internal/application"
	"github.com/gatekeep/gatekeep/internal/domain"
	"github.com/gatekeep/gatekeep/internal/domain/progress"
)

type runFlags struct {
	mode     string
	sync     bool
	bypass   bool
	fix      bool
	failFast bool
	plan     bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Run the checks for the current mode",
		Long: "Run every check that applies to the given files (default: staged files in hook mode, " +
			"the whole project otherwise). Hook mode returns immediately and checks in the background; " +
			"every other mode blocks and exits nonzero on failure.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			return runChecks(cmd, a, f, args)
		},
	}

	cmd.Flags().StringVar(&f.mode, "mode", "", "Invocation mode: hook, ci, interactive, pipeline, assistant")
	cmd.Flags().BoolVar(&f.sync, "sync", false, "Block until checks finish, even in hook mode")
	cmd.Flags().BoolVar(&f.bypass, "bypass", false, "Proceed even if the previous run failed")
	cmd.Flags().BoolVar(&f.fix, "fix", false, "Request auto-fixes the mode's policy allows")
	cmd.Flags().BoolVar(&f.failFast, "fail-fast", false, "Skip remaining checks after the first failure")
	cmd.Flags().BoolVar(&f.plan, "dry-run", false, "Print the execution plan without running anything")

	return cmd
}

func runChecks(cmd *cobra.Command, a *app, f *runFlags, args []string) error {
	out := cmd.OutOrStdout()

	// 1. Resolve mode and targets
	mode, err := a.resolveMode(f.mode)
	if err != nil {
		return err
	}
	profile := a.dispatcher.Profile(mode)
	files, err := a.dispatcher.Targets(mode, a.root, args)
	if err != nil {
		return domain.Orchestration("resolve targets", err)
	}

	if f.plan {
		plan, err := a.dispatcher.Plan(application.PlanRequest{Mode: mode, Root: a.root, Files: files, ExplicitFix: f.fix})
		if err != nil {
			return domain.Orchestration("build plan", err)
		}
		fmt.Fprint(out, tui.RenderPlan(plan, profile))
		return nil
	}

	req := application.RunRequest{
		Mode:     mode,
		Files:    files,
		Bypass:   f.bypass,
		Fix:      f.fix,
		FailFast: f.failFast,
	}

	// 2. Interactive prompts and live progress
	term := prompt.New()
	if profile.Interactive && term.Interactive() {
		req.ConfirmPrevious = func(prev *domain.RunRecord) (bool, error) {
			fmt.Fprint(out, tui.RenderPreviousFailure(prev))
			return term.Confirm("Run anyway?")
		}
		req.ConfirmFixes = func(checks []string) (bool, error) {
			return term.Confirm(fmt.Sprintf("Apply fixes that need review (%s)?", strings.Join(checks, ", ")))
		}
		req.Progress = func(plan domain.ExecutionPlan, sink *progress.Sink) func() {
			return tui.ShowProgress(sink, plan.Size(), cmd.ErrOrStderr())
		}
	}

	// 3. Non-blocking: hand off and return
	if !profile.Blocking && !f.sync {
		acc, err := a.orch.RunCheck(cmd.Context(), req)
		if err != nil {
			return err
		}
		report.WriteMinimalAcceptance(out, acc, len(files))
		return nil
	}

	// 4. Blocking: run, render, mirror the verdict
	rec, err := a.orch.RunCheckSync(cmd.Context(), req)
	if err != nil {
		return err
	}
	if err := renderRun(out, profile.Output, rec); err != nil {
		return err
	}
	return verdict(rec)
}

func renderRun(w io.Writer, shape domain.OutputShape, rec *domain.RunRecord) error {
	switch shape {
	case domain.OutputMinimal:
		report.WriteMinimal(w, rec)
	case domain.OutputTestReport:
		return report.WriteJUnit(w, rec)
	case domain.OutputColored:
		fmt.Fprint(w, tui.RenderRun(rec))
	default:
		return report.WriteDocument(w, rec)
	}
	return nil
}

// verdict maps a finished record to the command's error.
func verdict(rec *domain.RunRecord) error {
	switch {
	case rec.OrchestrationError != "":
		return domain.Orchestration("run "+rec.ID, errors.New(rec.OrchestrationError))
	case rec.Status == domain.RunInterrupted:
		return fmt.Errorf("%w: run %s was interrupted", domain.ErrValidationFailed, rec.ID)
	case !rec.Success:
		return fmt.Errorf("%w: %d errors in %s", domain.ErrValidationFailed, rec.Errors, strings.Join(rec.FailedChecks(), ", "))
	}
	return nil
}
