package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gatekeep/gatekeep/internal/application"
	"github.com/gatekeep/gatekeep/internal/domain"
)

const planMaxFiles = 5

// RenderPlan shows which checks a run would execute, tier by tier.
func RenderPlan(plan domain.ExecutionPlan, profile domain.ModeProfile) string {
	if plan.Size() == 0 {
		return "\n  " + dimStyle.Render("No checks apply to the selected files.") + "\n\n"
	}

	var b strings.Builder

	// ── Header box ──
	title := headerStyle.Render("Execution Plan")
	modeLine := lipgloss.NewStyle().Bold(true).Foreground(fg).Render(string(profile.Mode) + " mode")
	stats := dimStyle.Render(fmt.Sprintf("%d checks  ·  %d tiers  ·  fixes: %s",
		plan.Size(), len(plan.Tiers), profile.Fix))
	b.WriteString(boxStyle.Render(title + "\n" + modeLine + "\n" + stats))
	b.WriteString("\n\n")

	// ── Tiers ──
	for _, tier := range plan.Tiers {
		fmt.Fprintf(&b, "  %s\n", tierNameStyle.Render(fmt.Sprintf("Tier %d", tier.Level)))
		for _, pc := range tier.Checks {
			name := padRight(pc.Descriptor.Name, 22)
			conf := faintStyle.Render(string(pc.Descriptor.Confidence))
			mark := dimStyle.Render("check")
			if pc.Fix {
				mark = warnStyle.Render("fix  ")
			}
			fmt.Fprintf(&b, "    %s %s %s  %s\n", mark, name, conf, fileStyle.Render(describeFiles(pc)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func describeFiles(pc domain.PlannedCheck) string {
	if !pc.Descriptor.TakesFiles() || len(pc.Files) == 0 {
		return "whole project"
	}
	if len(pc.Files) <= planMaxFiles {
		return strings.Join(pc.Files, " ")
	}
	return fmt.Sprintf("%s … +%d more", strings.Join(pc.Files[:planMaxFiles], " "), len(pc.Files)-planMaxFiles)
}

// RenderFixPreview lists the fix decision for every fixable check.
func RenderFixPreview(fixes []application.FixPreview) string {
	if len(fixes) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "  %s\n", tierNameStyle.Render("Fixes"))
	for _, f := range fixes {
		var verdict string
		switch {
		case f.Apply && f.Confirm:
			verdict = warnStyle.Render("asks first")
		case f.Apply:
			verdict = passStyle.Render("applies")
		default:
			verdict = dimStyle.Render("report only")
		}
		fmt.Fprintf(&b, "    %s %s %s\n", padRight(f.Check, 22), faintStyle.Render(padRight(string(f.Confidence), 14)), verdict)
	}
	b.WriteString("\n")
	return b.String()
}
