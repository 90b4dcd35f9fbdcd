// Package metrics exports one run's outcome as a Prometheus textfile, for
// node_exporter's textfile collector or CI artifact scraping.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gatekeep/gatekeep/internal/domain"
)

const namespace = "gatekeep"

// TextfileWriter writes run metrics to a path chosen per run.
type TextfileWriter struct {
	// PathFor maps a run id to its .prom file.
	PathFor func(runID string) string
}

// NewTextfileWriter creates a writer using pathFor to place files.
func NewTextfileWriter(pathFor func(runID string) string) *TextfileWriter {
	return &TextfileWriter{PathFor: pathFor}
}

// Write renders r into a fresh registry and writes it atomically. Each call
// uses its own registry, so concurrent runs never share collectors.
func (w *TextfileWriter) Write(r *domain.RunRecord) error {
	registry := prometheus.NewRegistry()

	runLabels := prometheus.Labels{"mode": string(r.Mode)}
	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "run_success",
		Help: "1 if the most recent run passed.", ConstLabels: runLabels,
	})
	errs := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "run_errors",
		Help: "Errors reported by failed checks.", ConstLabels: runLabels,
	})
	warns := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "run_warnings",
		Help: "Warnings reported by all checks.", ConstLabels: runLabels,
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "run_duration_seconds",
		Help: "Wall time of the run.", ConstLabels: runLabels,
	})
	completed := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "run_completed_timestamp_seconds",
		Help: "Unix time the run finished.", ConstLabels: runLabels,
	})
	checkDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "check_duration_seconds",
		Help: "Wall time per check.",
	}, []string{"check", "tier"})
	checkErrors := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "check_errors",
		Help: "Errors per check.",
	}, []string{"check", "tier"})
	checkState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "check_state",
		Help: "1 for the terminal state each check ended in.",
	}, []string{"check", "state"})

	registry.MustRegister(success, errs, warns, duration, completed, checkDuration, checkErrors, checkState)

	if r.Success {
		success.Set(1)
	}
	errs.Set(float64(r.Errors))
	warns.Set(float64(r.Warnings))
	if !r.CompletedAt.IsZero() {
		duration.Set(r.CompletedAt.Sub(r.StartedAt).Seconds())
		completed.Set(float64(r.CompletedAt.Unix()))
	}
	for _, res := range r.Results {
		tier := fmt.Sprint(res.Tier)
		checkDuration.WithLabelValues(res.Name, tier).Set(res.Duration().Seconds())
		checkErrors.WithLabelValues(res.Name, tier).Set(float64(res.Errors))
		state := string(res.State)
		if res.TimedOut {
			state = "timeout"
		}
		checkState.WithLabelValues(res.Name, state).Set(1)
	}

	path := w.PathFor(r.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("writing metrics for %s: %w", r.ID, err)
	}
	return nil
}
