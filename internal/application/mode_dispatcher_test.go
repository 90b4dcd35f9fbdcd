package application_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/application"
	"github.com/gatekeep/gatekeep/internal/domain"
)

func envOf(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		configured string
		env        map[string]string
		tty        bool
		want       domain.Mode
	}{
		{name: "flag wins", flag: "assistant", configured: "ci", env: map[string]string{"CI": "true"}, want: domain.ModeAssistant},
		{name: "configured", configured: "pipeline", tty: true, want: domain.ModePipeline},
		{name: "ci marker", env: map[string]string{"GITHUB_ACTIONS": "true"}, tty: true, want: domain.ModeCI},
		{name: "ci false ignored", env: map[string]string{"CI": "false"}, tty: true, want: domain.ModeInteractive},
		{name: "git hook", env: map[string]string{"GIT_INDEX_FILE": ".git/index"}, tty: true, want: domain.ModeHook},
		{name: "not a terminal", want: domain.ModePipeline},
		{name: "terminal", tty: true, want: domain.ModeInteractive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := application.ResolveMode(tt.flag, tt.configured, application.Environment{
				Getenv: envOf(tt.env), StdoutIsTTY: tt.tty,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := application.ResolveMode("turbo", "", application.Environment{})
	assert.Error(t, err)
}

type fakeStaged struct {
	repo  bool
	files []string
	err   error
}

func (f fakeStaged) StagedFiles(string) ([]string, error) { return f.files, f.err }
func (f fakeStaged) IsGitRepo(string) bool                { return f.repo }

type fakeProject []string

func (f fakeProject) Files(string, ...string) ([]string, error) { return f, nil }

func dispatcherRegistry(t *testing.T) *domain.Registry {
	t.Helper()
	reg, err := domain.NewRegistry([]domain.CheckDescriptor{
		{Name: "gofmt", Command: "gofmt", Confidence: domain.ConfidenceAlwaysSafe, Patterns: []string{"*.go"}, FixArgs: []string{"-w"}},
		{Name: "eslint", Command: "eslint", Confidence: domain.ConfidenceUsuallySafe, Patterns: []string{"*.js"}, FixArgs: []string{"--fix"}, Tier: 1},
		{Name: "rewrite", Command: "rewrite", Confidence: domain.ConfidenceNeedsReview, Patterns: []string{"*.go"}, FixArgs: []string{"--apply"}, Tier: 2},
		{Name: "deep", Command: "deep", Confidence: domain.ConfidenceNeedsReview, Tier: 3, Slow: true},
	})
	require.NoError(t, err)
	return reg
}

func fixed(plan domain.ExecutionPlan) map[string]bool {
	out := map[string]bool{}
	for _, tier := range plan.Tiers {
		for _, pc := range tier.Checks {
			out[pc.Descriptor.Name] = pc.Fix
		}
	}
	return out
}

func TestModeDispatcher_Targets(t *testing.T) {
	d := application.NewModeDispatcher(dispatcherRegistry(t), fakeStaged{repo: true, files: []string{"b.go", "./a.go"}}, nil)

	files, err := d.Targets(domain.ModeHook, ".", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "b.go"}, files, "hook mode checks staged files")

	files, err = d.Targets(domain.ModeHook, ".", []string{"x.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x.go"}, files, "explicit files win")

	files, err = d.Targets(domain.ModeCI, ".", nil)
	require.NoError(t, err)
	assert.Nil(t, files, "other modes default to the whole project")

	notRepo := application.NewModeDispatcher(dispatcherRegistry(t), fakeStaged{}, nil)
	files, err = notRepo.Targets(domain.ModeHook, ".", nil)
	require.NoError(t, err)
	assert.Nil(t, files)

	broken := application.NewModeDispatcher(dispatcherRegistry(t), fakeStaged{repo: true, err: errors.New("index locked")}, nil)
	_, err = broken.Targets(domain.ModeHook, ".", nil)
	assert.ErrorContains(t, err, "index locked")
}

func TestModeDispatcher_PlanFiltersByModeAndFiles(t *testing.T) {
	d := application.NewModeDispatcher(dispatcherRegistry(t), nil, nil)

	hook, err := d.Plan(application.PlanRequest{Mode: domain.ModeHook, Files: []string{"main.go"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"gofmt", "rewrite"}, hook.Names(), "hook mode skips slow and non-matching checks")

	ci, err := d.Plan(application.PlanRequest{Mode: domain.ModeCI, Files: []string{"main.go"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"gofmt", "rewrite", "deep"}, ci.Names())
}

func TestModeDispatcher_WholeProjectUsesProjectFiles(t *testing.T) {
	d := application.NewModeDispatcher(dispatcherRegistry(t), nil, fakeProject{"web/app.js"})

	plan, err := d.Plan(application.PlanRequest{Mode: domain.ModeCI})
	require.NoError(t, err)
	assert.Equal(t, []string{"eslint", "deep"}, plan.Names(), "no Go files, no Go checks")
	for _, tier := range plan.Tiers {
		for _, pc := range tier.Checks {
			assert.Empty(t, pc.Files, "tools get the whole project")
		}
	}
}

func TestModeDispatcher_FixPolicies(t *testing.T) {
	d := application.NewModeDispatcher(dispatcherRegistry(t), nil, nil)
	files := []string{"main.go", "web/app.js"}

	hook, err := d.Plan(application.PlanRequest{Mode: domain.ModeHook, Files: files})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"gofmt": true, "eslint": false, "rewrite": false}, fixed(hook))

	ci, err := d.Plan(application.PlanRequest{Mode: domain.ModeCI, Files: files, ExplicitFix: true})
	require.NoError(t, err)
	for name, fix := range fixed(ci) {
		assert.False(t, fix, "ci never fixes: %s", name)
	}

	pipeline, err := d.Plan(application.PlanRequest{Mode: domain.ModePipeline, Files: files, ExplicitFix: true})
	require.NoError(t, err)
	assert.True(t, fixed(pipeline)["gofmt"], "explicit fix applies always-safe fixes")
	assert.False(t, fixed(pipeline)["eslint"])
}

func TestModeDispatcher_InteractiveAsksForReviewedFixes(t *testing.T) {
	d := application.NewModeDispatcher(dispatcherRegistry(t), nil, nil)
	files := []string{"main.go", "web/app.js"}

	var asked []string
	plan, err := d.Plan(application.PlanRequest{
		Mode: domain.ModeInteractive, Files: files,
		ConfirmFixes: func(checks []string) (bool, error) {
			asked = checks
			return false, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"rewrite"}, asked)
	assert.Equal(t, map[string]bool{"gofmt": true, "eslint": true, "rewrite": false, "deep": false}, fixed(plan))

	plan, err = d.Plan(application.PlanRequest{
		Mode: domain.ModeInteractive, Files: files,
		ConfirmFixes: func([]string) (bool, error) { return true, nil },
	})
	require.NoError(t, err)
	assert.True(t, fixed(plan)["rewrite"])

	_, err = d.Plan(application.PlanRequest{
		Mode: domain.ModeInteractive, Files: files,
		ConfirmFixes: func([]string) (bool, error) { return false, errors.New("stdin closed") },
	})
	assert.ErrorContains(t, err, "stdin closed")
}
