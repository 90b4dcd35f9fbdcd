package domain

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// FixConfidence classifies how safe a check's automatic remediation is to
// apply without human review.
type FixConfidence string

const (
	ConfidenceAlwaysSafe  FixConfidence = "always-safe"
	ConfidenceUsuallySafe FixConfidence = "usually-safe"
	ConfidenceNeedsReview FixConfidence = "needs-review"
)

// ValidConfidences enumerates all recognized fix-confidence levels.
var ValidConfidences = []FixConfidence{
	ConfidenceAlwaysSafe,
	ConfidenceUsuallySafe,
	ConfidenceNeedsReview,
}

// FilesPlaceholder is replaced by the matched file list inside Args and FixArgs.
const FilesPlaceholder = "{files}"

// CheckDescriptor describes one external check. Descriptors are built once
// at startup and never mutated afterwards.
type CheckDescriptor struct {
	Name           string        `yaml:"name"            json:"name"`
	Patterns       []string      `yaml:"patterns"        json:"patterns"`
	Tier           int           `yaml:"tier"            json:"tier"`
	Confidence     FixConfidence `yaml:"confidence"      json:"confidence"`
	Command        string        `yaml:"command"         json:"command"`
	Args           []string      `yaml:"args"            json:"args,omitempty"`
	FixArgs        []string      `yaml:"fix_args"        json:"fix_args,omitempty"`
	ErrorPattern   string        `yaml:"error_pattern"   json:"error_pattern,omitempty"`
	WarningPattern string        `yaml:"warning_pattern" json:"warning_pattern,omitempty"`
	Slow           bool          `yaml:"slow"            json:"slow,omitempty"`
	Timeout        time.Duration `yaml:"timeout"         json:"timeout,omitempty"`
	Image          string        `yaml:"image"           json:"image,omitempty"`
}

// CanFix reports whether the check has an auto-fix invocation.
func (d CheckDescriptor) CanFix() bool {
	return len(d.FixArgs) > 0
}

// Matches reports whether file is handled by this check. A descriptor
// without patterns matches every file.
func (d CheckDescriptor) Matches(file string) bool {
	if len(d.Patterns) == 0 {
		return true
	}
	base := path.Base(strings.ReplaceAll(file, "\\", "/"))
	for _, p := range d.Patterns {
		if ok, _ := path.Match(p, base); ok {
			return true
		}
	}
	return false
}

// MatchingFiles filters files down to the ones this check handles.
func (d CheckDescriptor) MatchingFiles(files []string) []string {
	var out []string
	for _, f := range files {
		if d.Matches(f) {
			out = append(out, f)
		}
	}
	return out
}

// ExpandArgs substitutes the file list for the {files} element of the
// argument template. Templates without the placeholder operate on the whole
// project and never receive files. An empty list expands to ".".
func (d CheckDescriptor) ExpandArgs(fix bool, files []string) []string {
	tmpl := d.Args
	if fix && d.CanFix() {
		tmpl = d.FixArgs
	}

	out := make([]string, 0, len(tmpl)+len(files))
	for _, a := range tmpl {
		if a != FilesPlaceholder {
			out = append(out, a)
			continue
		}
		if len(files) == 0 {
			out = append(out, ".")
			continue
		}
		out = append(out, files...)
	}
	return out
}

// TakesFiles reports whether the template receives the file list.
func (d CheckDescriptor) TakesFiles() bool {
	for _, a := range d.Args {
		if a == FilesPlaceholder {
			return true
		}
	}
	return false
}

// Validate checks a descriptor for missing or malformed fields.
func (d CheckDescriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("check is missing a name")
	}
	if strings.TrimSpace(d.Command) == "" {
		return fmt.Errorf("check %q is missing a command", d.Name)
	}
	if d.Tier < 0 {
		return fmt.Errorf("check %q has negative tier %d", d.Name, d.Tier)
	}
	if !isValidConfidence(d.Confidence) {
		return fmt.Errorf("check %q has unknown confidence %q", d.Name, d.Confidence)
	}
	for _, p := range d.Patterns {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("check %q has malformed pattern %q: %w", d.Name, p, err)
		}
	}
	for _, expr := range []string{d.ErrorPattern, d.WarningPattern} {
		if expr == "" {
			continue
		}
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("check %q has malformed output pattern %q: %w", d.Name, expr, err)
		}
	}
	return nil
}

func isValidConfidence(c FixConfidence) bool {
	for _, v := range ValidConfidences {
		if c == v {
			return true
		}
	}
	return false
}
