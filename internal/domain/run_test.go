package domain_test

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/domain"
)

func TestNewRunID_SortsByStartTime(t *testing.T) {
	base := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	ids := []string{
		domain.NewRunID(base.Add(2 * time.Second)),
		domain.NewRunID(base),
		domain.NewRunID(base.Add(time.Millisecond)),
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	assert.Equal(t, []string{ids[1], ids[2], ids[0]}, sorted)
	assert.NotEqual(t, domain.NewRunID(base), domain.NewRunID(base), "ids are unique")
}

func TestRunRecord_FinalizeAggregates(t *testing.T) {
	r := domain.NewRunRecord("id", domain.ModeCI, []string{"b.go", "a.go", "a.go"}, 42, time.Now())
	assert.Equal(t, []string{"a.go", "b.go"}, r.Files)
	assert.Equal(t, domain.RunRunning, r.Status)

	results := []domain.CheckResult{
		{Name: "ok", State: domain.StateSuccess, Warnings: 2},
		{Name: "bad", State: domain.StateFailed, Errors: 3, Warnings: 1},
		{Name: "late", State: domain.StateFailed, Errors: 1, TimedOut: true},
		{Name: "gone", State: domain.StateSkipped, SkipReason: domain.SkipUnavailable},
	}
	r.Finalize(results, false, time.Now())

	assert.Equal(t, domain.RunCompleted, r.Status)
	assert.Equal(t, 4, r.Errors)
	assert.Equal(t, 3, r.Warnings)
	assert.False(t, r.Success)
	assert.Equal(t, domain.ExitFailure, r.ExitCode)
	assert.Equal(t, []string{"ok", "bad", "late", "gone"}, r.Checks)
	assert.Equal(t, []string{"bad", "late"}, r.FailedChecks())

	res, ok := r.Result("late")
	require.True(t, ok)
	assert.Equal(t, "timeout", res.Outcome())
}

func TestRunRecord_FinalizeErrorsEqualFailedSum(t *testing.T) {
	results := []domain.CheckResult{
		{Name: "a", State: domain.StateFailed, Errors: 2},
		{Name: "b", State: domain.StateSuccess, Errors: 7},
		{Name: "c", State: domain.StateFailed, Errors: 5},
	}
	r := domain.NewRunRecord("id", domain.ModeCI, nil, 1, time.Now())
	r.Finalize(results, false, time.Now())

	sum := 0
	for _, res := range r.Results {
		if res.State == domain.StateFailed {
			sum += res.Errors
		}
	}
	assert.Equal(t, sum, r.Errors)
	assert.Equal(t, r.Errors == 0, r.Success)
}

func TestRunRecord_OrchestrationErrorFailsRun(t *testing.T) {
	r := domain.NewRunRecord("id", domain.ModeHook, nil, 1, time.Now())
	r.OrchestrationError = "store unavailable"
	r.Finalize(nil, false, time.Now())
	assert.False(t, r.Success)
	assert.Equal(t, domain.ExitInternal, r.ExitCode)
}

func TestRunRecord_Interrupted(t *testing.T) {
	r := domain.NewRunRecord("id", domain.ModeHook, nil, 1, time.Now())
	r.Finalize([]domain.CheckResult{{Name: "a", State: domain.StateSuccess}}, true, time.Now())
	assert.Equal(t, domain.RunInterrupted, r.Status)
	assert.False(t, r.Success)
	assert.True(t, r.IsFinal())
}

func TestFileSetsOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want bool
	}{
		{"shared file", []string{"a.go", "b.go"}, []string{"b.go"}, true},
		{"disjoint", []string{"a.go"}, []string{"b.go"}, false},
		{"whole project left", nil, []string{"b.go"}, true},
		{"whole project right", []string{"a.go"}, nil, true},
		{"normalized", []string{"./pkg/a.go"}, []string{"pkg/a.go"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.FileSetsOverlap(tt.a, tt.b))
			m := domain.WorkerMarker{Files: tt.a}
			assert.Equal(t, tt.want, m.Overlaps(tt.b))
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, domain.ExitOK, domain.ExitCode(nil))
	assert.Equal(t, domain.ExitFailure, domain.ExitCode(domain.ErrPreviousFailure))
	assert.Equal(t, domain.ExitFailure, domain.ExitCode(fmt.Errorf("run: %w", domain.ErrValidationFailed)))
	assert.Equal(t, domain.ExitInternal, domain.ExitCode(domain.Orchestration("launch worker", errors.New("fork"))))
	assert.Equal(t, domain.ExitInternal, domain.ExitCode(errors.New("unexpected")))
	assert.Nil(t, domain.Orchestration("noop", nil))
}
