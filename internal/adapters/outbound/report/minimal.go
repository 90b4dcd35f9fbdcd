package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/gatekeep/gatekeep/internal/domain"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
	skipColor = color.New(color.Faint)
	infoColor = color.New(color.FgCyan)
)

// WriteMinimalAcceptance prints the one-line hook-mode acknowledgement.
func WriteMinimalAcceptance(w io.Writer, a *domain.Acceptance, files int) {
	if a.Duplicate {
		infoColor.Fprintf(w, "gatekeep: run %s already checking these files\n", a.RunID)
		return
	}
	target := fmt.Sprintf("%d files", files)
	if files == 0 {
		target = "project"
	}
	infoColor.Fprintf(w, "gatekeep: checking %s in background (run %s)\n", target, a.RunID)
}

// WriteMinimal prints one line per non-passing check and a verdict.
func WriteMinimal(w io.Writer, r *domain.RunRecord) {
	for _, res := range r.Results {
		switch res.State {
		case domain.StateFailed:
			failColor.Fprintf(w, "✗ %s", res.Name)
			fmt.Fprintf(w, " %s, %d errors\n", res.Outcome(), res.Errors)
		case domain.StateSkipped:
			skipColor.Fprintf(w, "- %s %s\n", res.Name, res.Outcome())
		}
	}
	if r.Success {
		okColor.Fprintf(w, "gatekeep: %d checks passed\n", len(r.Results))
		return
	}
	failColor.Fprintf(w, "gatekeep: %d of %d checks failed (%d errors)", len(r.FailedChecks()), len(r.Results), r.Errors)
	fmt.Fprintf(w, " · gatekeep logs %s\n", r.ID)
}
