package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// ── warm palette ──
var (
	accent    = lipgloss.Color("#D97706") // amber
	fg        = lipgloss.Color("#E8E6E3") // warm light gray
	dim       = lipgloss.Color("#6B7280") // muted gray
	faint     = lipgloss.Color("#3F3F46") // very dim
	success   = lipgloss.Color("#22C55E") // green
	danger    = lipgloss.Color("#EF4444") // red
	warning   = lipgloss.Color("#F59E0B") // amber-yellow
	info      = lipgloss.Color("#8B949E") // soft blue-gray
	skipColor = lipgloss.Color("#4B5563") // dark gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	skipStyle     = lipgloss.NewStyle().Foreground(skipColor)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnTagStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	infoTagStyle  = lipgloss.NewStyle().Foreground(info)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	tierNameStyle = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// outputLines is how much of a failed check's output is echoed.
const outputLines = 8

// RenderRun renders a finished run as a styled report.
func RenderRun(r *domain.RunRecord) string {
	var b strings.Builder

	// ── Header ──
	title := headerStyle.Render("gatekeep")
	subtitle := dimStyle.Render(fmt.Sprintf("%s run  ·  %s", r.Mode, r.ID))
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + statusLine(r)))
	b.WriteString("\n\n")

	// ── Tiers ──
	tiers := groupByTier(r.Results)
	for i, tier := range tiers {
		fmt.Fprintf(&b, "  %s %s\n",
			tierNameStyle.Render(fmt.Sprintf("Tier %d", tier[0].Tier)),
			dimStyle.Render(fmt.Sprintf("(%d)", len(tier))))
		for _, res := range tier {
			renderResult(&b, res)
		}
		if i < len(tiers)-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString("  " + separatorLine)
	b.WriteString("\n\n")

	// ── Failures ──
	failed := r.FailedChecks()
	if len(failed) == 0 {
		b.WriteString("  " + passStyle.Render("All checks passed.") + "\n")
	} else {
		b.WriteString("  " + titleStyle.Render("Failures") + "  ")
		b.WriteString(errorTagStyle.Render(fmt.Sprintf("%d errors", r.Errors)))
		if r.Warnings > 0 {
			b.WriteString("  " + warnTagStyle.Render(fmt.Sprintf("%d warnings", r.Warnings)))
		}
		b.WriteString("\n\n")
		for _, name := range failed {
			res, _ := r.Result(name)
			renderFailure(&b, res)
		}
	}
	if r.OrchestrationError != "" {
		b.WriteString("\n  " + errorTagStyle.Render("error") + " " + dimStyle.Render(r.OrchestrationError) + "\n")
	}
	if r.LogPath != "" {
		b.WriteString("\n  " + hintStyle.Render("Full log: "+shortenPath(r.LogPath)) + "\n")
	}

	b.WriteString("\n")
	return b.String()
}

func statusLine(r *domain.RunRecord) string {
	var label string
	switch {
	case r.Status == domain.RunRunning:
		label = infoTagStyle.Render("RUNNING")
	case r.Status == domain.RunInterrupted:
		label = warnTagStyle.Render("INTERRUPTED")
	case r.Success:
		label = lipgloss.NewStyle().Bold(true).Foreground(success).Render("PASSED")
	default:
		label = lipgloss.NewStyle().Bold(true).Foreground(danger).Render("FAILED")
	}
	counts := dimStyle.Render(fmt.Sprintf("%d checks  ·  %d errors  ·  %d warnings  ·  %s",
		len(r.Results), r.Errors, r.Warnings, formatDuration(runDuration(r))))
	return label + "\n" + counts
}

func renderResult(b *strings.Builder, res domain.CheckResult) {
	name := padRight(res.Name, 22)
	detail := dimStyle.Render(formatDuration(res.Duration()))

	var icon string
	switch res.State {
	case domain.StateSuccess:
		icon = passStyle.Render("●")
		if res.Fixed {
			detail += "  " + infoTagStyle.Render("fixed")
		}
	case domain.StateFailed:
		icon = failStyle.Render("●")
		detail += "  " + errorTagStyle.Render(res.Outcome())
		if res.Errors > 0 {
			detail += " " + dimStyle.Render(fmt.Sprintf("%d errors", res.Errors))
		}
	case domain.StateSkipped:
		fmt.Fprintf(b, "    %s %s %s\n", skipStyle.Render("○"), skipStyle.Render(name), skipStyle.Render(res.Outcome()))
		return
	default:
		icon = warnStyle.Render("◌")
		detail = dimStyle.Render(string(res.State))
	}
	if res.Warnings > 0 {
		detail += "  " + warnTagStyle.Render(fmt.Sprintf("%d warn", res.Warnings))
	}
	if res.Strategy != "" && res.Strategy != domain.StrategyLocal {
		detail += "  " + faintStyle.Render(string(res.Strategy))
	}
	fmt.Fprintf(b, "    %s %s %s\n", icon, name, detail)
}

func renderFailure(b *strings.Builder, res domain.CheckResult) {
	fmt.Fprintf(b, "    %s %s\n", errorTagStyle.Render("error"), fileStyle.Render(res.Name))
	if res.Error != "" {
		fmt.Fprintf(b, "         %s\n", dimStyle.Render(res.Error))
	}
	for _, line := range lastLines(res.Output, outputLines) {
		fmt.Fprintf(b, "         %s\n", faintStyle.Render(line))
	}
}

func groupByTier(results []domain.CheckResult) [][]domain.CheckResult {
	var out [][]domain.CheckResult
	for _, res := range results {
		if n := len(out); n > 0 && out[n-1][0].Tier == res.Tier {
			out[n-1] = append(out[n-1], res)
			continue
		}
		out = append(out, []domain.CheckResult{res})
	}
	return out
}

func lastLines(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func runDuration(r *domain.RunRecord) time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}

func shortenPath(path string) string {
	if idx := strings.Index(path, ".gatekeep/"); idx >= 0 {
		return path[idx:]
	}
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > 3 {
		return strings.Join(parts[len(parts)-3:], "/")
	}
	return path
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
