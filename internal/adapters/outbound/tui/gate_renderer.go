package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gatekeep/gatekeep/internal/domain"
)

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle          = lipgloss.NewStyle().Foreground(dim).Italic(true)
)

// RenderPreviousFailure summarizes the failed run that gates a new one.
func RenderPreviousFailure(r *domain.RunRecord) string {
	var b strings.Builder

	head := titleStyle.Render("Previous run failed") + "  " +
		errorTagStyle.Render(fmt.Sprintf("%d errors", r.Errors))
	if r.Warnings > 0 {
		head += "  " + warnTagStyle.Render(fmt.Sprintf("%d warnings", r.Warnings))
	}
	sub := dimStyle.Render(fmt.Sprintf("%s  ·  %s", r.ID, r.Mode))
	b.WriteString(boxStyle.Render(head + "\n" + sub))
	b.WriteString("\n")

	failed := r.FailedChecks()
	if len(failed) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %s %s\n",
			sectionHeaderStyle.Render("Failed checks"),
			dimStyle.Render(fmt.Sprintf("(%d)", len(failed))))
		for _, name := range failed {
			res, _ := r.Result(name)
			line := fmt.Sprintf("    %s %s", failStyle.Render("●"), name)
			line += "  " + faintStyle.Render(res.Outcome())
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString("  " + hintStyle.Render("Run `gatekeep logs "+r.ID+"` for details, or pass --bypass to skip this gate."))
	b.WriteString("\n")
	return b.String()
}
