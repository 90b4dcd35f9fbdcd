package scheduler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gatekeep/gatekeep/internal/domain"
	"github.com/gatekeep/gatekeep/internal/domain/progress"
)

// maxOutputTail bounds how much tool output is kept on a CheckResult.
const maxOutputTail = 4 * 1024

// Options tune a Scheduler.
type Options struct {
	// Workers bounds concurrency within a tier. Values <= 0 use the number
	// of CPUs.
	Workers int
	// Timeout is the per-check budget unless a descriptor overrides it.
	Timeout time.Duration
	// StopOnFirstFailure skips every check not yet started once one fails.
	StopOnFirstFailure bool
	// Dir is the working directory for every invocation.
	Dir    string
	Logger *slog.Logger
	Now    func() time.Time
}

// Scheduler executes an ExecutionPlan tier by tier.
type Scheduler struct {
	resolver domain.ToolResolver
	executor domain.Executor
	sink     *progress.Sink
	opts     Options
}

// New wires a Scheduler. sink may be nil.
func New(resolver domain.ToolResolver, executor domain.Executor, sink *progress.Sink, opts Options) (*Scheduler, error) {
	if resolver == nil {
		return nil, fmt.Errorf("scheduler: resolver is required")
	}
	if executor == nil {
		return nil, fmt.Errorf("scheduler: executor is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = domain.DefaultCheckTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{resolver: resolver, executor: executor, sink: sink, opts: opts}, nil
}

// Execute runs every check in plan and returns one result per check, in plan
// order. interrupted is true when ctx was cancelled before the plan finished.
func (s *Scheduler) Execute(ctx context.Context, plan domain.ExecutionPlan) (results []domain.CheckResult, interrupted bool) {
	results = make([]domain.CheckResult, 0, plan.Size())
	for _, tier := range plan.Tiers {
		for _, pc := range tier.Checks {
			s.sink.Publish(domain.CheckResult{Name: pc.Descriptor.Name, Tier: tier.Level, State: domain.StatePending})
		}
	}

	var stopped atomic.Bool
	for _, tier := range plan.Tiers {
		tierResults := make([]domain.CheckResult, len(tier.Checks))

		g := new(errgroup.Group)
		g.SetLimit(s.opts.Workers)
		for i, pc := range tier.Checks {
			g.Go(func() error {
				switch {
				case ctx.Err() != nil:
					tierResults[i] = s.skip(tier.Level, pc, domain.SkipInterrupted)
				case s.opts.StopOnFirstFailure && stopped.Load():
					tierResults[i] = s.skip(tier.Level, pc, domain.SkipStopped)
				default:
					tierResults[i] = s.run(ctx, tier.Level, pc)
					if tierResults[i].State == domain.StateFailed {
						stopped.Store(true)
					}
				}
				return nil
			})
		}
		_ = g.Wait()

		s.opts.Logger.DebugContext(ctx, "tier finished", "tier", tier.Level, "checks", len(tier.Checks))
		results = append(results, tierResults...)
	}
	return results, ctx.Err() != nil
}

func (s *Scheduler) skip(tier int, pc domain.PlannedCheck, reason domain.SkipReason) domain.CheckResult {
	now := s.opts.Now()
	res := domain.CheckResult{
		Name:       pc.Descriptor.Name,
		Tier:       tier,
		State:      domain.StateSkipped,
		SkipReason: reason,
		StartedAt:  now,
		EndedAt:    now,
	}
	s.sink.Publish(res)
	return res
}

func (s *Scheduler) run(ctx context.Context, tier int, pc domain.PlannedCheck) domain.CheckResult {
	desc := pc.Descriptor
	log := s.opts.Logger.With("check", desc.Name, "tier", tier)

	res := domain.CheckResult{
		Name:           desc.Name,
		Tier:           tier,
		State:          domain.StateRunning,
		StartedAt:      s.opts.Now(),
		FilesProcessed: len(pc.Files),
	}

	inv, err := s.resolver.Resolve(desc)
	if err != nil {
		log.InfoContext(ctx, "check skipped", "reason", domain.SkipUnavailable, "err", err)
		res.State = domain.StateSkipped
		res.SkipReason = domain.SkipUnavailable
		res.Error = err.Error()
		res.EndedAt = s.opts.Now()
		s.sink.Publish(res)
		return res
	}
	res.Strategy = inv.Strategy
	s.sink.Publish(res)

	timeout := s.opts.Timeout
	if desc.Timeout > 0 {
		timeout = desc.Timeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	out, err := s.executor.Execute(cctx, inv, desc.ExpandArgs(pc.Fix, pc.Files), s.opts.Dir)
	cancel()

	res.EndedAt = s.opts.Now()
	res.ExitCode = out.ExitCode
	res.Output = tail(out.Output, maxOutputTail)
	errCount, warnCount := countFindings(desc, out.Output)
	res.Warnings = warnCount

	switch {
	case errors.Is(err, domain.ErrCheckTimeout):
		res.State = domain.StateFailed
		res.TimedOut = true
		res.Errors = max(errCount, 1)
		res.Error = fmt.Sprintf("timed out after %s", timeout)
	case err != nil && ctx.Err() != nil:
		res.State = domain.StateSkipped
		res.SkipReason = domain.SkipInterrupted
	case err != nil:
		res.State = domain.StateFailed
		res.Errors = max(errCount, 1)
		res.Error = err.Error()
	case out.ExitCode != 0 || errCount > 0:
		res.State = domain.StateFailed
		res.Errors = max(errCount, 1)
		res.Error = fmt.Sprintf("%s: exit status %d", domain.ErrCheckExecution, out.ExitCode)
	default:
		res.State = domain.StateSuccess
		res.Fixed = pc.Fix
	}

	log.InfoContext(ctx, "check finished", "outcome", res.Outcome(), "errors", res.Errors,
		"warnings", res.Warnings, "duration", res.Duration())
	s.sink.Publish(res)
	return res
}

// countFindings counts output lines matching the descriptor's error and
// warning patterns.
func countFindings(desc domain.CheckDescriptor, output []byte) (errs, warns int) {
	errRe := compile(desc.ErrorPattern)
	warnRe := compile(desc.WarningPattern)
	if errRe == nil && warnRe == nil {
		return 0, 0
	}

	sc := bufio.NewScanner(bytes.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		switch {
		case errRe != nil && errRe.Match(line):
			errs++
		case warnRe != nil && warnRe.Match(line):
			warns++
		}
	}
	return errs, warns
}

func compile(expr string) *regexp.Regexp {
	if expr == "" {
		return nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	return re
}

func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
