package report

import (
	"encoding/json"
	"io"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// SchemaVersion identifies the JSON document layout.
const SchemaVersion = 1

// Document is the pipeline-mode output.
type Document struct {
	SchemaVersion int                `json:"schema_version"`
	Run           *domain.RunRecord  `json:"run,omitempty"`
	Accepted      *domain.Acceptance `json:"accepted,omitempty"`
	Summary       Summary            `json:"summary"`
}

// Summary condenses a run for consumers that only need the verdict.
type Summary struct {
	Success  bool     `json:"success"`
	ExitCode int      `json:"exit_code"`
	Checks   int      `json:"checks"`
	Errors   int      `json:"errors"`
	Warnings int      `json:"warnings"`
	Failed   []string `json:"failed,omitempty"`
}

// NewDocument wraps r.
func NewDocument(r *domain.RunRecord) Document {
	return Document{
		SchemaVersion: SchemaVersion,
		Run:           r,
		Summary: Summary{
			Success:  r.Success,
			ExitCode: r.ExitCode,
			Checks:   len(r.Results),
			Errors:   r.Errors,
			Warnings: r.Warnings,
			Failed:   r.FailedChecks(),
		},
	}
}

// WriteDocument writes r as an indented JSON document.
func WriteDocument(w io.Writer, r *domain.RunRecord) error {
	return writeJSON(w, NewDocument(r))
}

// WriteAcceptance writes a non-blocking acceptance as a JSON document.
func WriteAcceptance(w io.Writer, a *domain.Acceptance) error {
	return writeJSON(w, Document{
		SchemaVersion: SchemaVersion,
		Accepted:      a,
		Summary:       Summary{Success: true},
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
