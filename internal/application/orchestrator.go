package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gatekeep/gatekeep/internal/domain"
	"github.com/gatekeep/gatekeep/internal/domain/progress"
	"github.com/gatekeep/gatekeep/internal/domain/scheduler"
)

// RunMetrics exports the aggregates of a finished run.
type RunMetrics interface {
	Write(r *domain.RunRecord) error
}

// RunLoggerFunc opens the per-run log. The returned closer is called once
// the run has been persisted.
type RunLoggerFunc func(runID, logPath string) (*slog.Logger, io.Closer, error)

// OrchestratorDeps lists the collaborators of an Orchestrator. Metrics,
// RunLogger, Logger, Now and PID are optional.
type OrchestratorDeps struct {
	Runs     domain.RunStore
	Markers  domain.MarkerStore
	Probe    domain.ProcessProbe
	Launcher domain.WorkerLauncher
	Planner  Planner
	Resolver domain.ToolResolver
	Executor domain.Executor
	Settings domain.Settings
	Root     string

	Metrics   RunMetrics
	RunLogger RunLoggerFunc
	Logger    *slog.Logger
	Now       func() time.Time
	PID       int
}

// RunRequest describes one invocation.
type RunRequest struct {
	Mode     domain.Mode
	Files    []string
	Bypass   bool
	Fix      bool
	FailFast bool
	// ConfirmPrevious is asked when the latest completed run failed. Nil
	// refuses to proceed.
	ConfirmPrevious func(prev *domain.RunRecord) (bool, error)
	// ConfirmFixes is forwarded to the planner.
	ConfirmFixes func(checks []string) (bool, error)
	// Progress is started once the plan is known and stopped when the
	// scheduler returns.
	Progress func(plan domain.ExecutionPlan, sink *progress.Sink) (stop func())
}

// Orchestrator owns the run lifecycle: gating, duplicate suppression,
// detaching, executing and persisting.
type Orchestrator struct {
	runs      domain.RunStore
	markers   domain.MarkerStore
	probe     domain.ProcessProbe
	launcher  domain.WorkerLauncher
	planner   Planner
	resolver  domain.ToolResolver
	executor  domain.Executor
	settings  domain.Settings
	root      string
	metrics   RunMetrics
	runLogger RunLoggerFunc
	logger    *slog.Logger
	now       func() time.Time
	pid       int
}

// NewOrchestrator validates deps and wires an Orchestrator.
func NewOrchestrator(deps OrchestratorDeps) (*Orchestrator, error) {
	switch {
	case deps.Runs == nil:
		return nil, fmt.Errorf("orchestrator: run store is required")
	case deps.Markers == nil:
		return nil, fmt.Errorf("orchestrator: marker store is required")
	case deps.Probe == nil:
		return nil, fmt.Errorf("orchestrator: process probe is required")
	case deps.Planner == nil:
		return nil, fmt.Errorf("orchestrator: planner is required")
	}
	o := &Orchestrator{
		runs:      deps.Runs,
		markers:   deps.Markers,
		probe:     deps.Probe,
		launcher:  deps.Launcher,
		planner:   deps.Planner,
		resolver:  deps.Resolver,
		executor:  deps.Executor,
		settings:  deps.Settings,
		root:      deps.Root,
		metrics:   deps.Metrics,
		runLogger: deps.RunLogger,
		logger:    deps.Logger,
		now:       deps.Now,
		pid:       deps.PID,
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.pid == 0 {
		o.pid = os.Getpid()
	}
	if o.root == "" {
		o.root = "."
	}
	return o, nil
}

// RunCheck gates on the previous run, suppresses duplicates and hands the
// work to a detached worker. It returns as soon as the worker is started.
func (o *Orchestrator) RunCheck(ctx context.Context, req RunRequest) (*domain.Acceptance, error) {
	files := domain.NormalizeFiles(req.Files)

	// 1. Reclaim workers that died without cleaning up.
	if err := o.reclaimOrphans(); err != nil {
		return nil, err
	}

	// 2. Refuse to proceed past a known-bad run.
	if err := o.checkPrevious(req); err != nil {
		return nil, err
	}

	// 3. Reuse a live worker already covering these files.
	dup, err := o.liveOverlap(files)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		o.logger.Info("duplicate run suppressed", "existing_run", dup.RunID, "pid", dup.PID)
		return &domain.Acceptance{RunID: dup.RunID, PID: dup.PID, Duplicate: true, LogPath: dup.LogPath}, nil
	}

	// 4. Detach.
	if o.launcher == nil {
		return nil, domain.Orchestration("launch worker", errors.New("no launcher configured"))
	}
	id := domain.NewRunID(o.now())
	spec := domain.WorkerSpec{
		RunID:   id,
		Mode:    req.Mode,
		Files:   files,
		Root:    o.root,
		LogPath: o.runs.LogPath(id),
		Fix:     req.Fix,
	}
	pid, err := o.launcher.Launch(ctx, spec)
	if err != nil {
		return nil, domain.Orchestration("launch worker", err)
	}

	marker := domain.WorkerMarker{
		PID: pid, RunID: id, Files: files, StartedAt: o.now(), Mode: req.Mode, LogPath: spec.LogPath,
	}
	if err := o.markers.Write(marker); err != nil {
		return nil, domain.Orchestration("write worker marker", err)
	}
	// The worker deletes its marker after saving the final record, so a
	// worker that finished before the write above leaves a final record here.
	if rec, err := o.runs.Load(id); err == nil && rec != nil && rec.IsFinal() {
		_ = o.markers.Delete(id)
	}

	o.logger.Info("worker launched", "run_id", id, "pid", pid, "files", len(files))
	return &domain.Acceptance{RunID: id, PID: pid, LogPath: spec.LogPath}, nil
}

// RunCheckSync runs the checks inline and returns the persisted record.
// Failing checks are reported through the record, not the error.
func (o *Orchestrator) RunCheckSync(ctx context.Context, req RunRequest) (*domain.RunRecord, error) {
	if err := o.reclaimOrphans(); err != nil {
		return nil, err
	}
	if err := o.checkPrevious(req); err != nil {
		return nil, err
	}

	id := domain.NewRunID(o.now())
	spec := domain.WorkerSpec{
		RunID:   id,
		Mode:    req.Mode,
		Files:   domain.NormalizeFiles(req.Files),
		Root:    o.root,
		LogPath: o.runs.LogPath(id),
		Fix:     req.Fix,
	}
	return o.run(ctx, spec, req)
}

// RunWorker is the body of a detached worker.
func (o *Orchestrator) RunWorker(ctx context.Context, spec domain.WorkerSpec) (*domain.RunRecord, error) {
	if spec.RunID == "" {
		return nil, domain.Orchestration("start worker", errors.New("run id is required"))
	}
	if spec.LogPath == "" {
		spec.LogPath = o.runs.LogPath(spec.RunID)
	}
	return o.run(ctx, spec, RunRequest{Mode: spec.Mode, Files: spec.Files, Fix: spec.Fix})
}

func (o *Orchestrator) run(ctx context.Context, spec domain.WorkerSpec, req RunRequest) (*domain.RunRecord, error) {
	logger, closer := o.openRunLogger(spec)
	if closer != nil {
		defer closer.Close()
	}

	rec := domain.NewRunRecord(spec.RunID, spec.Mode, spec.Files, o.pid, o.now())
	rec.LogPath = spec.LogPath

	marker := domain.WorkerMarker{
		PID: o.pid, RunID: rec.ID, Files: rec.Files, StartedAt: rec.StartedAt, Mode: rec.Mode, LogPath: rec.LogPath,
	}
	if err := o.markers.Write(marker); err != nil {
		return nil, domain.Orchestration("write worker marker", err)
	}
	if err := o.runs.Save(rec); err != nil {
		_ = o.markers.Delete(rec.ID)
		return nil, domain.Orchestration("save running record", err)
	}
	logger.InfoContext(ctx, "run started", "files", len(rec.Files))

	o.execute(ctx, rec, spec, req, logger)

	return rec, o.persist(ctx, rec, logger)
}

func (o *Orchestrator) execute(ctx context.Context, rec *domain.RunRecord, spec domain.WorkerSpec, req RunRequest, logger *slog.Logger) {
	profile := domain.ProfileFor(spec.Mode)

	plan, err := o.planner.Plan(PlanRequest{
		Mode:         spec.Mode,
		Root:         spec.Root,
		Files:        spec.Files,
		ExplicitFix:  spec.Fix,
		ConfirmFixes: req.ConfirmFixes,
	})
	if err != nil {
		logger.ErrorContext(ctx, "planning failed", "error", err)
		rec.OrchestrationError = fmt.Sprintf("planning: %v", err)
		rec.Finalize(nil, false, o.now())
		return
	}

	sink := progress.NewSink()
	sched, err := scheduler.New(o.resolver, o.executor, sink, scheduler.Options{
		Workers:            o.settings.Workers,
		Timeout:            o.settings.CheckTimeout,
		StopOnFirstFailure: profile.StopOnFirstFailure || req.FailFast,
		Dir:                spec.Root,
		Logger:             logger,
		Now:                o.now,
	})
	if err != nil {
		rec.OrchestrationError = err.Error()
		rec.Finalize(nil, false, o.now())
		return
	}

	var stop func()
	if req.Progress != nil {
		stop = req.Progress(plan, sink)
	}
	results, interrupted := sched.Execute(ctx, plan)
	if stop != nil {
		stop()
	}
	rec.Finalize(results, interrupted, o.now())
}

// persist writes the final record, then releases the marker. The record is
// saved first so a reader never sees neither.
func (o *Orchestrator) persist(ctx context.Context, rec *domain.RunRecord, logger *slog.Logger) error {
	if err := o.runs.Save(rec); err != nil {
		logger.ErrorContext(ctx, "saving run failed", "error", err)
		_ = o.markers.Delete(rec.ID)
		return domain.Orchestration("save run", err)
	}
	logger.InfoContext(ctx, "run finished",
		"status", rec.Status,
		"success", rec.Success,
		"errors", rec.Errors,
		"warnings", rec.Warnings,
		"duration", rec.CompletedAt.Sub(rec.StartedAt).String(),
	)

	if o.metrics != nil {
		if err := o.metrics.Write(rec); err != nil {
			logger.WarnContext(ctx, "writing metrics failed", "error", err)
		}
	}
	if err := o.markers.Delete(rec.ID); err != nil {
		logger.WarnContext(ctx, "removing worker marker failed", "error", err)
	}
	if o.settings.HistoryMaxAge > 0 {
		if n, err := o.runs.Prune(o.now().Add(-o.settings.HistoryMaxAge)); err != nil {
			logger.WarnContext(ctx, "pruning history failed", "error", err)
		} else if n > 0 {
			logger.DebugContext(ctx, "pruned history", "removed", n)
		}
	}
	return nil
}

func (o *Orchestrator) openRunLogger(spec domain.WorkerSpec) (*slog.Logger, io.Closer) {
	if o.runLogger == nil {
		return o.logger, nil
	}
	l, c, err := o.runLogger(spec.RunID, spec.LogPath)
	if err != nil {
		o.logger.Warn("opening run log failed", "path", spec.LogPath, "error", err)
		return o.logger, nil
	}
	return l, c
}

// checkPrevious returns ErrPreviousFailure when the latest finished run
// failed and the caller neither bypassed nor confirmed.
func (o *Orchestrator) checkPrevious(req RunRequest) error {
	if req.Bypass {
		return nil
	}
	prev, err := o.lastFinal()
	if err != nil {
		return domain.Orchestration("read previous run", err)
	}
	if prev == nil || prev.Success {
		return nil
	}
	if req.ConfirmPrevious != nil {
		ok, err := req.ConfirmPrevious(prev)
		if err != nil {
			return domain.Orchestration("confirm previous failure", err)
		}
		if ok {
			o.logger.Info("proceeding past failed run", "previous_run", prev.ID)
			return nil
		}
	}
	if failed := prev.FailedChecks(); len(failed) > 0 {
		return fmt.Errorf("%w: run %s had %d errors in %s", domain.ErrPreviousFailure, prev.ID, prev.Errors, strings.Join(failed, ", "))
	}
	if prev.OrchestrationError != "" {
		return fmt.Errorf("%w: run %s: %s", domain.ErrPreviousFailure, prev.ID, prev.OrchestrationError)
	}
	return fmt.Errorf("%w: run %s was %s", domain.ErrPreviousFailure, prev.ID, prev.Status)
}

// lastFinal returns the newest record that reached a verdict. Only running
// records are passed over; an interrupted run never verified its files and
// gates like a failure.
func (o *Orchestrator) lastFinal() (*domain.RunRecord, error) {
	latest, err := o.runs.Latest()
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.IsFinal() {
		return latest, nil
	}
	return o.runs.LatestWhere((*domain.RunRecord).IsFinal)
}

func (o *Orchestrator) liveOverlap(files []string) (*domain.WorkerMarker, error) {
	markers, err := o.markers.List()
	if err != nil {
		return nil, domain.Orchestration("list worker markers", err)
	}
	for i := len(markers) - 1; i >= 0; i-- {
		m := markers[i]
		if m.PID == o.pid || !o.probe.Alive(m.PID) {
			continue
		}
		if m.Overlaps(files) {
			return &m, nil
		}
	}
	return nil, nil
}

// reclaimOrphans deletes markers of dead workers and closes out the records
// they left running.
func (o *Orchestrator) reclaimOrphans() error {
	markers, err := o.markers.List()
	if err != nil {
		return domain.Orchestration("list worker markers", err)
	}
	for _, m := range markers {
		if o.probe.Alive(m.PID) {
			continue
		}
		if err := o.interruptRun(m); err != nil {
			return err
		}
		if err := o.markers.Delete(m.RunID); err != nil {
			return domain.Orchestration("delete orphaned marker", err)
		}
		o.logger.Warn("reclaimed orphaned worker", "run_id", m.RunID, "pid", m.PID)
	}

	// A worker that died before writing its marker leaves only the record.
	latest, err := o.runs.Latest()
	if err != nil {
		return domain.Orchestration("read latest run", err)
	}
	if latest != nil && !latest.IsFinal() && latest.OwnerPID != o.pid && !o.probe.Alive(latest.OwnerPID) {
		return o.interruptRun(domain.WorkerMarker{PID: latest.OwnerPID, RunID: latest.ID})
	}
	return nil
}

// interruptRun closes out the run of a dead worker. A worker that died
// before saving its first record gets one built from its marker.
func (o *Orchestrator) interruptRun(m domain.WorkerMarker) error {
	rec, err := o.runs.Load(m.RunID)
	if err != nil {
		return domain.Orchestration("load orphaned run", err)
	}
	if rec != nil && rec.IsFinal() {
		return nil
	}
	if rec == nil {
		rec = domain.NewRunRecord(m.RunID, m.Mode, m.Files, m.PID, m.StartedAt)
		rec.LogPath = m.LogPath
	}
	rec.OrchestrationError = fmt.Sprintf("worker %d exited before completing", m.PID)
	rec.Finalize(rec.Results, true, o.now())
	if err := o.runs.Save(rec); err != nil {
		return domain.Orchestration("save orphaned run", err)
	}
	return nil
}

// MostRecentRun returns the pointer target, or nil when nothing has run.
func (o *Orchestrator) MostRecentRun() (*domain.RunRecord, error) {
	r, err := o.runs.Latest()
	if err != nil {
		return nil, domain.Orchestration("read latest run", err)
	}
	return r, nil
}

// Run returns one record by id, or nil.
func (o *Orchestrator) Run(id string) (*domain.RunRecord, error) {
	r, err := o.runs.Load(id)
	if err != nil {
		return nil, domain.Orchestration("read run", err)
	}
	return r, nil
}

// RunHistory returns up to limit records, newest first. limit <= 0 falls
// back to the configured history limit.
func (o *Orchestrator) RunHistory(limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 {
		limit = o.settings.HistoryLimit
	}
	runs, err := o.runs.List(limit)
	if err != nil {
		return nil, domain.Orchestration("list runs", err)
	}
	return runs, nil
}

// ListActiveWorkers reclaims orphans and returns the live markers, oldest
// first.
func (o *Orchestrator) ListActiveWorkers() ([]domain.WorkerMarker, error) {
	if err := o.reclaimOrphans(); err != nil {
		return nil, err
	}
	markers, err := o.markers.List()
	if err != nil {
		return nil, domain.Orchestration("list worker markers", err)
	}
	live := markers[:0]
	for _, m := range markers {
		if o.probe.Alive(m.PID) {
			live = append(live, m)
		}
	}
	return live, nil
}

// Prune removes completed runs older than maxAge.
func (o *Orchestrator) Prune(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = o.settings.HistoryMaxAge
	}
	n, err := o.runs.Prune(o.now().Add(-maxAge))
	if err != nil {
		return n, domain.Orchestration("prune history", err)
	}
	return n, nil
}

// LogPath resolves the log file of a run. An empty id means the latest run.
func (o *Orchestrator) LogPath(id string) (string, error) {
	if id != "" {
		return o.runs.LogPath(id), nil
	}
	latest, err := o.MostRecentRun()
	if err != nil {
		return "", err
	}
	if latest == nil {
		return "", fmt.Errorf("no runs recorded")
	}
	if latest.LogPath != "" {
		return latest.LogPath, nil
	}
	return o.runs.LogPath(latest.ID), nil
}
