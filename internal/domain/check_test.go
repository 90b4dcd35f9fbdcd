package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/domain"
)

func TestCheckDescriptor_Matches(t *testing.T) {
	d := domain.CheckDescriptor{Patterns: []string{"*.go", "Dockerfile"}}
	assert.True(t, d.Matches("cmd/main.go"))
	assert.True(t, d.Matches("deploy/Dockerfile"))
	assert.False(t, d.Matches("README.md"))

	any := domain.CheckDescriptor{}
	assert.True(t, any.Matches("anything.txt"))

	assert.Equal(t, []string{"a.go", "b/c.go"}, d.MatchingFiles([]string{"a.go", "x.py", "b/c.go"}))
}

func TestCheckDescriptor_ExpandArgs(t *testing.T) {
	d := domain.CheckDescriptor{
		Args:    []string{"-l", domain.FilesPlaceholder},
		FixArgs: []string{"-w", domain.FilesPlaceholder},
	}
	assert.Equal(t, []string{"-l", "a.go", "b.go"}, d.ExpandArgs(false, []string{"a.go", "b.go"}))
	assert.Equal(t, []string{"-w", "a.go"}, d.ExpandArgs(true, []string{"a.go"}))
	assert.Equal(t, []string{"-l", "."}, d.ExpandArgs(false, nil), "empty set means the whole project")
	assert.True(t, d.TakesFiles())

	project := domain.CheckDescriptor{Args: []string{"vet", "./..."}}
	assert.Equal(t, []string{"vet", "./..."}, project.ExpandArgs(true, []string{"a.go"}), "no fix args and no placeholder")
	assert.False(t, project.TakesFiles())
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	d := domain.CheckDescriptor{Name: "x", Command: "x", Confidence: domain.ConfidenceAlwaysSafe}
	_, err := domain.NewRegistry([]domain.CheckDescriptor{d, d})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestRegistry_ActiveFiltersByModeAndFiles(t *testing.T) {
	reg, err := domain.NewRegistry([]domain.CheckDescriptor{
		{Name: "fmt", Command: "fmt", Confidence: domain.ConfidenceAlwaysSafe, Patterns: []string{"*.go"}},
		{Name: "deep", Command: "deep", Confidence: domain.ConfidenceNeedsReview, Patterns: []string{"*.go"}, Tier: 2, Slow: true},
		{Name: "py", Command: "py", Confidence: domain.ConfidenceUsuallySafe, Patterns: []string{"*.py"}, Tier: 1},
	})
	require.NoError(t, err)

	hook := reg.Active(domain.ProfileFor(domain.ModeHook), []string{"main.go"})
	assert.Equal(t, []string{"fmt"}, names(hook), "hook mode drops slow checks")

	ci := reg.Active(domain.ProfileFor(domain.ModeCI), []string{"main.go"})
	assert.Equal(t, []string{"fmt", "deep"}, names(ci))

	all := reg.Active(domain.ProfileFor(domain.ModeCI), nil)
	assert.Equal(t, []string{"fmt", "py", "deep"}, names(all), "ordered by tier")
}

func TestBuildPlan_GroupsByAscendingTier(t *testing.T) {
	descs := []domain.CheckDescriptor{
		{Name: "lint", Tier: 1, FixArgs: []string{"--fix"}, Confidence: domain.ConfidenceUsuallySafe},
		{Name: "fmt-b", Tier: 0},
		{Name: "fmt-a", Tier: 0, FixArgs: []string{"-w"}, Confidence: domain.ConfidenceAlwaysSafe},
		{Name: "sec", Tier: 5},
	}
	plan := domain.BuildPlan(descs, nil, func(d domain.CheckDescriptor) bool {
		return d.Confidence == domain.ConfidenceAlwaysSafe
	})

	require.Len(t, plan.Tiers, 3)
	assert.Equal(t, []int{0, 1, 5}, []int{plan.Tiers[0].Level, plan.Tiers[1].Level, plan.Tiers[2].Level})
	assert.Equal(t, []string{"fmt-a", "fmt-b", "lint", "sec"}, plan.Names())
	assert.Equal(t, 4, plan.Size())
	assert.True(t, plan.Tiers[0].Checks[0].Fix)
	assert.False(t, plan.Tiers[1].Checks[0].Fix)
}

func names(descs []domain.CheckDescriptor) []string {
	out := make([]string, 0, len(descs))
	for _, d := range descs {
		out = append(out, d.Name)
	}
	return out
}
