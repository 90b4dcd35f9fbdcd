package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// WorkerRow is an active worker as shown by `gatekeep workers`.
type WorkerRow struct {
	Marker domain.WorkerMarker
	Alive  bool
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	return tbl
}

// RenderHistory formats runs, newest first, relative to now.
func RenderHistory(runs []*domain.RunRecord, now time.Time) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Run", "Started", "Mode", "Status", "Checks", "Errors", "Warnings", "Duration"})
	failures := 0
	for _, r := range runs {
		status := string(r.Status)
		if r.Status == domain.RunCompleted {
			status = "passed"
			if !r.Success {
				status = "failed"
				failures++
			}
		}
		tbl.AppendRow(table.Row{
			r.ID,
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			r.Mode,
			status,
			len(r.Results),
			r.Errors,
			r.Warnings,
			humanDuration(runDuration(r)),
		})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d runs", len(runs)), "", "", fmt.Sprintf("%d failed", failures)})
	return tbl.Render() + "\n"
}

// RenderWorkers formats active worker markers.
func RenderWorkers(rows []WorkerRow, now time.Time) string {
	if len(rows) == 0 {
		return "No active workers.\n"
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Run", "PID", "Mode", "Started", "Files", "State"})
	for _, row := range rows {
		m := row.Marker
		state := "running"
		if !row.Alive {
			state = "orphaned"
		}
		tbl.AppendRow(table.Row{
			m.RunID,
			m.PID,
			m.Mode,
			humanize.RelTime(m.StartedAt, now, "ago", "from now"),
			describeFiles(m.Files),
			state,
		})
	}
	return tbl.Render() + "\n"
}

func describeFiles(files []string) string {
	switch len(files) {
	case 0:
		return "whole project"
	case 1, 2:
		return strings.Join(files, " ")
	default:
		return fmt.Sprintf("%s +%s more", files[0], humanize.Comma(int64(len(files)-1)))
	}
}

func humanDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}
