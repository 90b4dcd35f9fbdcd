package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/config"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/executor"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/gitinfo"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/launcher"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/logging"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/markers"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/metrics"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/prompt"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/resolver"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/runstore"
	"github.com/gatekeep/gatekeep/internal/adapters/outbound/scanner"
	"github.com/gatekeep/gatekeep/internal/application"
	"github.com/gatekeep/gatekeep/internal/domain"
)

// app is the wired object graph shared by every command.
type app struct {
	root       string
	settings   domain.Settings
	registry   *domain.Registry
	runs       *runstore.Store
	dispatcher *application.ModeDispatcher
	fixes      *application.FixService
	orch       *application.Orchestrator
	logger     *slog.Logger
}

type appOptions struct {
	root     string
	logLevel string
	mode     domain.Mode
	// logOut receives foreground logs. Nil discards them.
	logOut io.Writer
	// worker switches logging to JSON on logOut, which is the run log.
	worker bool
}

func newApp(opts appOptions) (*app, error) {
	root, err := filepath.Abs(opts.root)
	if err != nil {
		return nil, fmt.Errorf("resolving project path: %w", err)
	}

	// 1. Project config and runtime settings
	cfg, err := config.New().Load(root)
	if err != nil {
		return nil, err
	}
	settings, err := config.LoadSettings(cfg.Settings)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		settings.LogLevel = opts.logLevel
	}
	if !filepath.IsAbs(settings.StateDir) {
		settings.StateDir = filepath.Join(root, settings.StateDir)
	}

	// 2. Logging
	level, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.DiscardHandler)
	if opts.logOut != nil {
		format := logging.FormatText
		if opts.worker {
			format = logging.FormatJSON
		}
		logger = logging.New(opts.logOut, format, level, string(opts.mode))
	}

	// 3. Check registry
	registry, err := domain.NewRegistry(cfg.ResolveChecks())
	if err != nil {
		return nil, fmt.Errorf("building check registry: %w", err)
	}

	// 4. Stores and tools
	runs := runstore.New(settings.StateDir)
	image := settings.ContainerImage
	if image == "" {
		image = cfg.ContainerImage
	}
	tools := resolver.New(logger,
		resolver.NewBundledStrategy(version),
		resolver.LocalStrategy{},
		resolver.ContainerStrategy{Runtime: settings.ContainerRuntime, Image: image, Root: root},
	)

	// 5. Application services
	dispatcher := application.NewModeDispatcher(registry, gitinfo.New(), scanner.New())
	a := &app{
		root:       root,
		settings:   settings,
		registry:   registry,
		runs:       runs,
		dispatcher: dispatcher,
		fixes:      application.NewFixService(dispatcher, registry),
		logger:     logger,
	}
	deps := application.OrchestratorDeps{
		Runs:     runs,
		Markers:  markers.New(settings.StateDir),
		Probe:    launcher.Probe{},
		Launcher: launcher.New(),
		Planner:  dispatcher,
		Resolver: tools,
		Executor: executor.New(),
		Settings: settings,
		Root:     root,
		Metrics:  metrics.NewTextfileWriter(runs.MetricsPath),
		Logger:   logger,
	}
	if !opts.worker {
		deps.RunLogger = a.openRunLog(level)
	}
	if a.orch, err = application.NewOrchestrator(deps); err != nil {
		return nil, err
	}
	return a, nil
}

// openRunLog sends the logs of inline runs to their log file so
// `gatekeep logs` works for every run.
func (a *app) openRunLog(level slog.Level) application.RunLoggerFunc {
	return func(runID, logPath string) (*slog.Logger, io.Closer, error) {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening run log: %w", err)
		}
		l := logging.New(f, logging.FormatJSON, level, "").With("run_id", runID)
		return l, f, nil
	}
}

// resolveMode applies the flag, then settings and environment, then the
// terminal heuristic.
func (a *app) resolveMode(flag string) (domain.Mode, error) {
	return application.ResolveMode(flag, a.settings.Mode, application.Environment{
		Getenv:      os.Getenv,
		StdoutIsTTY: prompt.IsTerminal(os.Stdout),
	})
}
