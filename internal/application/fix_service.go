package application

import (
	"fmt"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// FixPreview is what a mode would do with one check's fix invocation.
type FixPreview struct {
	Check      string               `json:"check"`
	Confidence domain.FixConfidence `json:"confidence"`
	Apply      bool                 `json:"apply"`
	Confirm    bool                 `json:"confirm,omitempty"`
}

// FixService explains fix-policy decisions without running anything.
type FixService struct {
	dispatcher *ModeDispatcher
	registry   *domain.Registry
}

func NewFixService(dispatcher *ModeDispatcher, registry *domain.Registry) *FixService {
	return &FixService{dispatcher: dispatcher, registry: registry}
}

// Preview returns one entry per fixable check active for mode and files.
func (s *FixService) Preview(mode domain.Mode, root string, files []string, explicit bool) ([]FixPreview, error) {
	// 1. Resolve the targets the way a run would
	targets, err := s.dispatcher.Targets(mode, root, files)
	if err != nil {
		return nil, fmt.Errorf("resolving targets: %w", err)
	}

	// 2. Build the plan without confirming anything
	plan, err := s.dispatcher.Plan(PlanRequest{Mode: mode, Root: root, Files: targets, ExplicitFix: explicit})
	if err != nil {
		return nil, fmt.Errorf("building plan: %w", err)
	}

	// 3. Report the policy decision for every fixable check
	policy := s.dispatcher.Profile(mode).Fix
	var out []FixPreview
	for _, tier := range plan.Tiers {
		for _, pc := range tier.Checks {
			d := pc.Descriptor
			if !d.CanFix() {
				continue
			}
			dec := policy.Decide(d.Confidence, explicit)
			out = append(out, FixPreview{
				Check:      d.Name,
				Confidence: d.Confidence,
				Apply:      dec.Apply,
				Confirm:    dec.Confirm,
			})
		}
	}
	return out, nil
}
