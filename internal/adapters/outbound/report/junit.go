// Package report renders run records in the machine and plain-text shapes
// used outside the interactive terminal.
package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/gatekeep/gatekeep/internal/domain"
)

type junitSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Name     string       `xml:"name,attr"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Skipped  int          `xml:"skipped,attr"`
	Time     string       `xml:"time,attr"`
	Suites   []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name      string      `xml:"name,attr"`
	Tests     int         `xml:"tests,attr"`
	Failures  int         `xml:"failures,attr"`
	Skipped   int         `xml:"skipped,attr"`
	Time      string      `xml:"time,attr"`
	Timestamp string      `xml:"timestamp,attr,omitempty"`
	Cases     []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr"`
}

// WriteJUnit writes r as a JUnit XML test report, one suite per tier.
func WriteJUnit(w io.Writer, r *domain.RunRecord) error {
	doc := junitSuites{Name: "gatekeep " + r.ID, Time: seconds(runDuration(r))}

	for _, res := range r.Results {
		if n := len(doc.Suites); n == 0 || doc.Suites[n-1].Name != suiteName(res.Tier) {
			doc.Suites = append(doc.Suites, junitSuite{
				Name:      suiteName(res.Tier),
				Timestamp: r.StartedAt.UTC().Format(time.RFC3339),
			})
		}
		suite := &doc.Suites[len(doc.Suites)-1]

		tc := junitCase{
			Name:      res.Name,
			Classname: "gatekeep." + suiteName(res.Tier),
			Time:      seconds(res.Duration()),
		}
		switch res.State {
		case domain.StateFailed:
			kind := "failure"
			if res.TimedOut {
				kind = "timeout"
			}
			tc.Failure = &junitFailure{
				Message: fmt.Sprintf("%s: %d errors", res.Outcome(), res.Errors),
				Type:    kind,
				Body:    res.Output,
			}
			suite.Failures++
			doc.Failures++
		case domain.StateSkipped:
			tc.Skipped = &junitSkipped{Message: string(res.SkipReason)}
			suite.Skipped++
			doc.Skipped++
		default:
			tc.SystemOut = res.Output
		}
		suite.Tests++
		doc.Tests++
		suite.Cases = append(suite.Cases, tc)
	}
	for i := range doc.Suites {
		var total time.Duration
		for _, c := range r.Results {
			if suiteName(c.Tier) == doc.Suites[i].Name {
				total += c.Duration()
			}
		}
		doc.Suites[i].Time = seconds(total)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding junit report: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func suiteName(tier int) string {
	return fmt.Sprintf("tier%d", tier)
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

func runDuration(r *domain.RunRecord) time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
