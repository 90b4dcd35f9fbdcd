package domain

import (
	"fmt"
	"sort"
)

// Registry is the static set of check descriptors.
type Registry struct {
	checks []CheckDescriptor
	byName map[string]int
}

// NewRegistry validates descs and builds a registry. Names must be unique.
func NewRegistry(descs []CheckDescriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(descs))}
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate check name %q", d.Name)
		}
		r.byName[d.Name] = len(r.checks)
		r.checks = append(r.checks, d)
	}
	sort.SliceStable(r.checks, func(i, j int) bool {
		if r.checks[i].Tier != r.checks[j].Tier {
			return r.checks[i].Tier < r.checks[j].Tier
		}
		return r.checks[i].Name < r.checks[j].Name
	})
	for i, d := range r.checks {
		r.byName[d.Name] = i
	}
	return r, nil
}

// All returns every descriptor ordered by tier, then name.
func (r *Registry) All() []CheckDescriptor {
	out := make([]CheckDescriptor, len(r.checks))
	copy(out, r.checks)
	return out
}

// Get looks up a descriptor by name.
func (r *Registry) Get(name string) (CheckDescriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return CheckDescriptor{}, false
	}
	return r.checks[i], true
}

// Len returns the number of registered checks.
func (r *Registry) Len() int { return len(r.checks) }

// Active returns the mode-filtered subset that applies to files. With an
// empty file set (whole project) every included check is active.
func (r *Registry) Active(profile ModeProfile, files []string) []CheckDescriptor {
	var out []CheckDescriptor
	for _, d := range r.checks {
		if !profile.Includes(d) {
			continue
		}
		if len(files) > 0 && len(d.MatchingFiles(files)) == 0 {
			continue
		}
		out = append(out, d)
	}
	return out
}
