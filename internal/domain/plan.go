package domain

import "sort"

// PlannedCheck is one check scheduled within a tier.
type PlannedCheck struct {
	Descriptor CheckDescriptor `json:"descriptor"`
	Files      []string        `json:"files"`
	Fix        bool            `json:"fix"`
}

// PlanTier groups checks that may run concurrently.
type PlanTier struct {
	Level  int            `json:"level"`
	Checks []PlannedCheck `json:"checks"`
}

// ExecutionPlan is the ordered list of tiers for one invocation.
type ExecutionPlan struct {
	Tiers []PlanTier `json:"tiers"`
}

// Size returns the total number of planned checks.
func (p ExecutionPlan) Size() int {
	n := 0
	for _, t := range p.Tiers {
		n += len(t.Checks)
	}
	return n
}

// Names returns planned check names in tier order.
func (p ExecutionPlan) Names() []string {
	var out []string
	for _, t := range p.Tiers {
		for _, c := range t.Checks {
			out = append(out, c.Descriptor.Name)
		}
	}
	return out
}

// BuildPlan partitions descs into ascending tiers. Each check receives the
// subset of files it matches; fix decides whether it runs in fix mode and
// may be nil.
func BuildPlan(descs []CheckDescriptor, files []string, fix func(CheckDescriptor) bool) ExecutionPlan {
	byTier := make(map[int][]PlannedCheck)
	for _, d := range descs {
		pc := PlannedCheck{Descriptor: d}
		if len(files) > 0 {
			pc.Files = d.MatchingFiles(files)
		}
		if fix != nil && d.CanFix() {
			pc.Fix = fix(d)
		}
		byTier[d.Tier] = append(byTier[d.Tier], pc)
	}

	levels := make([]int, 0, len(byTier))
	for lvl := range byTier {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)

	plan := ExecutionPlan{Tiers: make([]PlanTier, 0, len(levels))}
	for _, lvl := range levels {
		checks := byTier[lvl]
		sort.SliceStable(checks, func(i, j int) bool {
			return checks[i].Descriptor.Name < checks[j].Descriptor.Name
		})
		plan.Tiers = append(plan.Tiers, PlanTier{Level: lvl, Checks: checks})
	}
	return plan
}
