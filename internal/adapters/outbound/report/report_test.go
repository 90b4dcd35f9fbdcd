package report_test

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/report"
	"github.com/gatekeep/gatekeep/internal/domain"
)

var start = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func sampleRun() *domain.RunRecord {
	r := domain.NewRunRecord("20261001T120000.000000000Z-abcd1234", domain.ModeCI, nil, 1, start)
	r.Finalize([]domain.CheckResult{
		{Name: "gofmt", State: domain.StateSuccess, StartedAt: start, EndedAt: start.Add(time.Second)},
		{Name: "go-vet", Tier: 1, State: domain.StateFailed, Errors: 2, Output: "main.go:3: bad", StartedAt: start, EndedAt: start.Add(2 * time.Second)},
		{Name: "gosec", Tier: 2, State: domain.StateFailed, Errors: 1, TimedOut: true, StartedAt: start, EndedAt: start.Add(time.Minute)},
		{Name: "bandit", Tier: 2, State: domain.StateSkipped, SkipReason: domain.SkipUnavailable},
	}, false, start.Add(time.Minute))
	return r
}

func TestWriteJUnit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteJUnit(&buf, sampleRun()))

	var doc struct {
		Tests    int `xml:"tests,attr"`
		Failures int `xml:"failures,attr"`
		Skipped  int `xml:"skipped,attr"`
		Suites   []struct {
			Name  string `xml:"name,attr"`
			Cases []struct {
				Name    string `xml:"name,attr"`
				Failure *struct {
					Type string `xml:"type,attr"`
					Body string `xml:",chardata"`
				} `xml:"failure"`
			} `xml:"testcase"`
		} `xml:"testsuite"`
	}
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 4, doc.Tests)
	assert.Equal(t, 2, doc.Failures)
	assert.Equal(t, 1, doc.Skipped)
	require.Len(t, doc.Suites, 3)
	assert.Equal(t, "tier2", doc.Suites[2].Name)

	vet := doc.Suites[1].Cases[0]
	require.NotNil(t, vet.Failure)
	assert.Equal(t, "failure", vet.Failure.Type)
	assert.Equal(t, "main.go:3: bad", vet.Failure.Body)
	assert.Equal(t, "timeout", doc.Suites[2].Cases[0].Failure.Type)
}

func TestWriteDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteDocument(&buf, sampleRun()))

	var doc report.Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, report.SchemaVersion, doc.SchemaVersion)
	assert.False(t, doc.Summary.Success)
	assert.Equal(t, 3, doc.Summary.Errors)
	assert.Equal(t, []string{"go-vet", "gosec"}, doc.Summary.Failed)
	require.NotNil(t, doc.Run)
	assert.Len(t, doc.Run.Results, 4)
}

func TestWriteAcceptance(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteAcceptance(&buf, &domain.Acceptance{RunID: "r1", PID: 9}))
	assert.Contains(t, buf.String(), `"run_id": "r1"`)
}

func TestWriteMinimal(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	report.WriteMinimal(&buf, sampleRun())
	out := buf.String()
	assert.Contains(t, out, "✗ go-vet failed, 2 errors")
	assert.Contains(t, out, "✗ gosec timeout, 1 errors")
	assert.Contains(t, out, "- bandit skipped (unavailable)")
	assert.Contains(t, out, "2 of 4 checks failed")
	assert.NotContains(t, out, "gofmt")

	buf.Reset()
	report.WriteMinimalAcceptance(&buf, &domain.Acceptance{RunID: "r9"}, 3)
	assert.Equal(t, "gatekeep: checking 3 files in background (run r9)\n", buf.String())

	buf.Reset()
	report.WriteMinimalAcceptance(&buf, &domain.Acceptance{RunID: "r9", Duplicate: true}, 3)
	assert.Contains(t, buf.String(), "already checking")
}

func TestRenderHistory(t *testing.T) {
	out := report.RenderHistory([]*domain.RunRecord{sampleRun()}, start.Add(time.Hour))
	assert.Contains(t, out, "20261001T120000.000000000Z-abcd1234")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "ago")
	assert.Contains(t, strings.ToLower(out), "total: 1 runs")

	assert.Equal(t, "No runs recorded.\n", report.RenderHistory(nil, start))
}

func TestRenderWorkers(t *testing.T) {
	out := report.RenderWorkers([]report.WorkerRow{
		{Marker: domain.WorkerMarker{RunID: "r1", PID: 42, Mode: domain.ModeHook, StartedAt: start, Files: []string{"a.go", "b.go", "c.go"}}, Alive: true},
		{Marker: domain.WorkerMarker{RunID: "r2", PID: 43, Mode: domain.ModeCI, StartedAt: start}},
	}, start.Add(time.Minute))
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "a.go +2 more")
	assert.Contains(t, out, "whole project")
	assert.Contains(t, out, "orphaned")

	assert.Equal(t, "No active workers.\n", report.RenderWorkers(nil, start))
}
