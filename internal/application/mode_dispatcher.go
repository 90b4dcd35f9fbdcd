package application

import (
	"fmt"
	"strings"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// ciMarkers are environment variables set by common CI providers.
var ciMarkers = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE", "JENKINS_URL"}

// hookMarkers are set by git while running hooks.
var hookMarkers = []string{"GIT_INDEX_FILE", "GIT_EXEC_PATH"}

// Environment is what mode resolution may look at besides flags.
type Environment struct {
	Getenv      func(string) string
	StdoutIsTTY bool
}

// ResolveMode picks the invocation mode: explicit flag, then configured
// mode (GATEKEEP_MODE or settings), then CI markers, then git hook
// variables, then a non-terminal stdout, and finally interactive.
func ResolveMode(flag, configured string, env Environment) (domain.Mode, error) {
	if flag != "" {
		return domain.ParseMode(flag)
	}
	if configured != "" {
		return domain.ParseMode(configured)
	}
	getenv := env.Getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	for _, k := range ciMarkers {
		if v := strings.TrimSpace(getenv(k)); v != "" && !strings.EqualFold(v, "false") && v != "0" {
			return domain.ModeCI, nil
		}
	}
	for _, k := range hookMarkers {
		if getenv(k) != "" {
			return domain.ModeHook, nil
		}
	}
	if !env.StdoutIsTTY {
		return domain.ModePipeline, nil
	}
	return domain.ModeInteractive, nil
}

// ProjectFiles lists every file of a project.
type ProjectFiles interface {
	Files(projectPath string, excludePaths ...string) ([]string, error)
}

// StagedSource is a FileSource that can tell whether root is a repository.
type StagedSource interface {
	domain.FileSource
	IsGitRepo(projectPath string) bool
}

// PlanRequest is the input to building one run's execution plan.
type PlanRequest struct {
	Mode  domain.Mode
	Root  string
	Files []string
	// ExplicitFix is set when the caller asked for fixes.
	ExplicitFix bool
	// ConfirmFixes is asked once for every fix needing review. Nil declines.
	ConfirmFixes func(checks []string) (bool, error)
}

// Planner builds execution plans.
type Planner interface {
	Plan(req PlanRequest) (domain.ExecutionPlan, error)
}

// ModeDispatcher composes the registry, file discovery and the mode table
// into per-invocation plans.
type ModeDispatcher struct {
	registry *domain.Registry
	staged   StagedSource
	project  ProjectFiles
}

// NewModeDispatcher wires a dispatcher. staged and project may be nil.
func NewModeDispatcher(registry *domain.Registry, staged StagedSource, project ProjectFiles) *ModeDispatcher {
	return &ModeDispatcher{registry: registry, staged: staged, project: project}
}

// Profile returns the dispatch record for m.
func (d *ModeDispatcher) Profile(m domain.Mode) domain.ModeProfile {
	return domain.ProfileFor(m)
}

// Targets computes the file set for an invocation. Explicit files win; hook
// mode falls back to the staged files; otherwise the whole project (nil).
func (d *ModeDispatcher) Targets(m domain.Mode, root string, files []string) ([]string, error) {
	if len(files) > 0 {
		return domain.NormalizeFiles(files), nil
	}
	if m != domain.ModeHook || d.staged == nil || !d.staged.IsGitRepo(root) {
		return nil, nil
	}
	staged, err := d.staged.StagedFiles(root)
	if err != nil {
		return nil, fmt.Errorf("listing staged files: %w", err)
	}
	return domain.NormalizeFiles(staged), nil
}

// Plan filters the registry for the mode and files and decides, per check,
// whether its fix invocation runs.
func (d *ModeDispatcher) Plan(req PlanRequest) (domain.ExecutionPlan, error) {
	profile := domain.ProfileFor(req.Mode)
	files := domain.NormalizeFiles(req.Files)

	// A whole-project run still only activates checks with something to look at.
	matchOn := files
	if len(files) == 0 && d.project != nil {
		all, err := d.project.Files(req.Root)
		if err != nil {
			return domain.ExecutionPlan{}, fmt.Errorf("scanning project: %w", err)
		}
		matchOn = all
	}
	active := d.registry.Active(profile, matchOn)

	var review []string
	for _, c := range active {
		if c.CanFix() && profile.Fix.Decide(c.Confidence, req.ExplicitFix).Confirm {
			review = append(review, c.Name)
		}
	}
	confirmed := false
	if len(review) > 0 && req.ConfirmFixes != nil {
		ok, err := req.ConfirmFixes(review)
		if err != nil {
			return domain.ExecutionPlan{}, fmt.Errorf("confirming fixes: %w", err)
		}
		confirmed = ok
	}

	return domain.BuildPlan(active, files, func(c domain.CheckDescriptor) bool {
		dec := profile.Fix.Decide(c.Confidence, req.ExplicitFix)
		return dec.Apply && (!dec.Confirm || confirmed)
	}), nil
}
