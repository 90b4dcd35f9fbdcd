package domain

import "fmt"

// Mode is one of the five invocation contexts.
type Mode string

const (
	ModeHook        Mode = "hook"
	ModeCI          Mode = "ci"
	ModeInteractive Mode = "interactive"
	ModePipeline    Mode = "pipeline"
	ModeAssistant   Mode = "assistant"
)

// ValidModes enumerates all recognized modes.
var ValidModes = []Mode{ModeHook, ModeCI, ModeInteractive, ModePipeline, ModeAssistant}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range ValidModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q (valid: hook, ci, interactive, pipeline, assistant)", s)
}

// OutputShape selects how a run is presented.
type OutputShape string

const (
	OutputMinimal    OutputShape = "minimal"
	OutputTestReport OutputShape = "test-report"
	OutputColored    OutputShape = "colored"
	OutputDocument   OutputShape = "document"
	OutputEnvelope   OutputShape = "envelope"
)

// FixPolicy is the auto-fix tier a mode permits.
type FixPolicy string

const (
	// FixOnRequest applies nothing unless fixes are explicitly requested, and
	// then only always-safe ones.
	FixOnRequest FixPolicy = "on-request"
	// FixAlwaysSafe applies always-safe fixes.
	FixAlwaysSafe FixPolicy = "always-safe"
	// FixReviewed applies always-safe and usually-safe fixes and asks before
	// needs-review ones.
	FixReviewed FixPolicy = "reviewed"
	// FixNever can not be overridden.
	FixNever FixPolicy = "never"
)

// FixDecision is the outcome of applying a FixPolicy to one check.
type FixDecision struct {
	Apply   bool
	Confirm bool
}

// Decide returns whether a fix at confidence c may run under this policy.
// explicit reports whether the caller asked for fixes.
func (p FixPolicy) Decide(c FixConfidence, explicit bool) FixDecision {
	switch p {
	case FixAlwaysSafe:
		return FixDecision{Apply: c == ConfidenceAlwaysSafe}
	case FixReviewed:
		switch c {
		case ConfidenceAlwaysSafe, ConfidenceUsuallySafe:
			return FixDecision{Apply: true}
		case ConfidenceNeedsReview:
			return FixDecision{Apply: true, Confirm: true}
		}
	case FixOnRequest:
		return FixDecision{Apply: explicit && c == ConfidenceAlwaysSafe}
	}
	return FixDecision{}
}

// ModeProfile is the flat configuration record for one mode.
type ModeProfile struct {
	Mode               Mode        `json:"mode"`
	Output             OutputShape `json:"output"`
	Blocking           bool        `json:"blocking"`
	Fix                FixPolicy   `json:"fix"`
	IncludeSlow        bool        `json:"include_slow"`
	Interactive        bool        `json:"interactive"`
	StopOnFirstFailure bool        `json:"stop_on_first_failure"`
}

// Includes reports whether d belongs to this mode's active subset.
func (p ModeProfile) Includes(d CheckDescriptor) bool {
	return p.IncludeSlow || !d.Slow
}

var modeProfiles = map[Mode]ModeProfile{
	ModeHook: {
		Mode: ModeHook, Output: OutputMinimal, Blocking: false,
		Fix: FixAlwaysSafe, IncludeSlow: false,
	},
	ModeCI: {
		Mode: ModeCI, Output: OutputTestReport, Blocking: true,
		Fix: FixNever, IncludeSlow: true,
	},
	ModeInteractive: {
		Mode: ModeInteractive, Output: OutputColored, Blocking: true,
		Fix: FixReviewed, IncludeSlow: true, Interactive: true,
	},
	ModePipeline: {
		Mode: ModePipeline, Output: OutputDocument, Blocking: true,
		Fix: FixOnRequest, IncludeSlow: true,
	},
	ModeAssistant: {
		Mode: ModeAssistant, Output: OutputEnvelope, Blocking: true,
		Fix: FixOnRequest, IncludeSlow: true,
	},
}

// ProfileFor returns the dispatch record for m. Unknown modes get the
// interactive profile.
func ProfileFor(m Mode) ModeProfile {
	if p, ok := modeProfiles[m]; ok {
		return p
	}
	return modeProfiles[ModeInteractive]
}
