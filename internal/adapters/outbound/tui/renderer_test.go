package tui_test

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/tui"
	"github.com/gatekeep/gatekeep/internal/application"
	"github.com/gatekeep/gatekeep/internal/domain"
	"github.com/gatekeep/gatekeep/internal/domain/progress"
)

func sampleRun() *domain.RunRecord {
	start := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	r := domain.NewRunRecord("20261001T120000.000000000Z-abcd1234", domain.ModeInteractive, []string{"main.go"}, 1, start)
	r.Finalize([]domain.CheckResult{
		{Name: "gofmt", Tier: 0, State: domain.StateSuccess, Fixed: true, StartedAt: start, EndedAt: start.Add(40 * time.Millisecond)},
		{Name: "go-vet", Tier: 1, State: domain.StateFailed, Errors: 2, Output: "main.go:3: unreachable code\nmain.go:9: bad printf", StartedAt: start, EndedAt: start.Add(2 * time.Second)},
		{Name: "gosec", Tier: 2, State: domain.StateFailed, Errors: 1, TimedOut: true, StartedAt: start, EndedAt: start.Add(time.Minute)},
		{Name: "shellcheck", Tier: 2, State: domain.StateSkipped, SkipReason: domain.SkipUnavailable},
	}, false, start.Add(time.Minute))
	return r
}

func TestRenderRun_ContainsChecksAndOutcome(t *testing.T) {
	output := tui.RenderRun(sampleRun())
	assert.Contains(t, output, "FAILED")
	assert.Contains(t, output, "gofmt")
	assert.Contains(t, output, "fixed")
	assert.Contains(t, output, "go-vet")
	assert.Contains(t, output, "timeout")
	assert.Contains(t, output, "skipped (unavailable)")
	assert.Contains(t, output, "3 errors")
	assert.Contains(t, output, "unreachable code")
}

func TestRenderRun_Passed(t *testing.T) {
	r := domain.NewRunRecord("id", domain.ModeInteractive, nil, 1, time.Now())
	r.Finalize([]domain.CheckResult{{Name: "gofmt", State: domain.StateSuccess}}, false, time.Now())
	output := tui.RenderRun(r)
	assert.Contains(t, output, "PASSED")
	assert.Contains(t, output, "All checks passed.")
}

func TestRenderPreviousFailure(t *testing.T) {
	output := tui.RenderPreviousFailure(sampleRun())
	assert.Contains(t, output, "Previous run failed")
	assert.Contains(t, output, "go-vet")
	assert.Contains(t, output, "gosec")
	assert.NotContains(t, output, "shellcheck")
	assert.Contains(t, output, "--bypass")
}

func TestRenderPlan(t *testing.T) {
	plan := domain.BuildPlan([]domain.CheckDescriptor{
		{Name: "gofmt", Args: []string{"-l", domain.FilesPlaceholder}, FixArgs: []string{"-w", domain.FilesPlaceholder}, Confidence: domain.ConfidenceAlwaysSafe},
		{Name: "go-vet", Tier: 1, Args: []string{"vet", "./..."}, Confidence: domain.ConfidenceNeedsReview},
	}, []string{"main.go"}, func(domain.CheckDescriptor) bool { return true })

	output := tui.RenderPlan(plan, domain.ProfileFor(domain.ModeHook))
	assert.Contains(t, output, "Execution Plan")
	assert.Contains(t, output, "hook mode")
	assert.Contains(t, output, "Tier 1")
	assert.Contains(t, output, "whole project")
	assert.Contains(t, output, "main.go")

	empty := tui.RenderPlan(domain.ExecutionPlan{}, domain.ProfileFor(domain.ModeHook))
	assert.Contains(t, empty, "No checks apply")
}

func TestRenderFixPreview(t *testing.T) {
	output := tui.RenderFixPreview([]application.FixPreview{
		{Check: "gofmt", Confidence: domain.ConfidenceAlwaysSafe, Apply: true},
		{Check: "rewrite", Confidence: domain.ConfidenceNeedsReview, Apply: true, Confirm: true},
		{Check: "eslint", Confidence: domain.ConfidenceUsuallySafe},
	})
	assert.Contains(t, output, "Fixes")
	assert.Contains(t, output, "applies")
	assert.Contains(t, output, "asks first")
	assert.Contains(t, output, "report only")
	assert.Empty(t, tui.RenderFixPreview(nil))
}

func TestProgressModel_CountsTerminalTransitions(t *testing.T) {
	sink := progress.NewSink()
	var m tea.Model = tui.NewProgressModel(2)
	sink.Subscribe(func(ev progress.Event) {
		m, _ = m.Update(tui.EventMsg(ev))
	})

	sink.Publish(domain.CheckResult{Name: "a", State: domain.StatePending})
	sink.Publish(domain.CheckResult{Name: "a", State: domain.StateRunning})
	assert.Contains(t, m.View(), "running: a")
	sink.Publish(domain.CheckResult{Name: "a", State: domain.StateFailed})
	sink.Publish(domain.CheckResult{Name: "b", State: domain.StateSuccess})

	pm := m.(tui.ProgressModel)
	assert.Equal(t, 2, pm.Done())
	assert.Contains(t, m.View(), "2/2")
	assert.Contains(t, m.View(), "1 failed")
}
