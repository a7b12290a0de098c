// Package manager wires the registry, OSAL, loader, cleaner, and scan
// scheduler into one owning context, the way devops.Orchestrator wires its
// health checker, port allocator, process manager, and log manager behind
// a single constructor and a handful of accessors.
package manager

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"alm/internal/cleanup"
	"alm/internal/config"
	"alm/internal/events"
	"alm/internal/loader"
	"alm/internal/metrics"
	"alm/internal/osal"
	"alm/internal/registry"
	"alm/internal/scan"
	"alm/internal/startup"
)

// Manager is the single owning context for one ALM universe: its own
// registry, OSAL simulator, and scan scheduler, so tests can instantiate
// several independent instances side by side (spec.md §9's resolution of
// "global mutable state").
type Manager struct {
	cfg      config.Config
	logger   *slog.Logger
	events   *events.Sink
	registry *registry.Registry
	osal     *osal.Simulator
	loader   *loader.Loader
	cleaner  *cleanup.Cleaner
	cmds     *scan.CommandCounter
	sched    *scan.Scheduler
	metrics  *metrics.Metrics
}

// New constructs a Manager from cfg. logger may be nil; events fall back
// to slog.Default() wrapped in events.New.
func New(cfg config.Config, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sink := events.New(logger)

	reg := registry.New(cfg.MaxApplications, cfg.MaxLibraries, cfg.MaxTasks)
	sim := osal.NewSimulator(logger)
	ld := loader.New(reg, sim, sink, logger)
	cl := cleanup.New(reg, sim, sink, logger, cfg.CleanupHookTimeout,
		cleanup.NewTableRegistry(), cleanup.NewSoftwareBus(), cleanup.NewTimeClients(), cleanup.NewEventFilters())
	cmds := &scan.CommandCounter{}
	sched := scan.New(reg, cl, ld, cmds, sink, logger, scan.Config{
		ScanRate:         cfg.AppScanRate,
		KillTimeoutTicks: cfg.AppKillTimeout,
	})

	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("manager: build metrics: %w", err)
	}
	sink.SetHook(func(id events.ID) {
		switch id {
		case events.AppCreated:
			m.RecordAppCreate(context.Background())
		case events.AppDeleted, events.AppExit, events.AppErrExit, events.AppStop:
			m.RecordAppCleanup(context.Background())
		case events.ScanTick:
			m.RecordScanTick(context.Background())
		}
	})

	return &Manager{
		cfg:      cfg,
		logger:   logger,
		events:   sink,
		registry: reg,
		osal:     sim,
		loader:   ld,
		cleaner:  cl,
		cmds:     cmds,
		sched:    sched,
		metrics:  m,
	}, nil
}

func (m *Manager) Registry() *registry.Registry   { return m.registry }
func (m *Manager) OSAL() *osal.Simulator          { return m.osal }
func (m *Manager) Loader() *loader.Loader         { return m.loader }
func (m *Manager) Cleaner() *cleanup.Cleaner      { return m.cleaner }
func (m *Manager) Scheduler() *scan.Scheduler     { return m.sched }
func (m *Manager) Commands() *scan.CommandCounter { return m.cmds }
func (m *Manager) Metrics() *metrics.Metrics      { return m.metrics }
func (m *Manager) Config() config.Config          { return m.cfg }

// Bootstrap implements C1+C2 against r: tokenize and dispatch every record,
// routing CFE_APP to the loader's CreateApp and CFE_LIB to LoadLibrary.
func (m *Manager) Bootstrap(ctx context.Context, r io.Reader) error {
	return startup.Parse(r, m.logger, func(tokens []string) {
		if err := startup.Dispatch(ctx, tokens, m.logger, m.loader, m.loader); err != nil {
			m.logger.Warn("manager: bootstrap record dispatch failed", "error", err)
		}
	})
}

// BootstrapFiles implements the supplemented ability to accept more than one
// startup-script fragment, e.g. a base script plus one or more drop-in
// extension files. Each file is opened and parsed independently and
// concurrently via errgroup, since C2's dispatch only ever touches the
// registry through Loader's own locking and the records across files carry
// no ordering dependency; the records within a single file still dispatch
// in order. Wait returns the first open or read error. The group's context,
// cancelled on that error, is only handed on to each dispatched record;
// parsing of the other files is not interrupted.
func (m *Manager) BootstrapFiles(ctx context.Context, open func(path string) (io.ReadCloser, error), paths ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range paths {
		p := p
		g.Go(func() error {
			rc, err := open(p)
			if err != nil {
				return fmt.Errorf("bootstrap: open %s: %w", p, err)
			}
			defer rc.Close()
			return m.Bootstrap(gctx, rc)
		})
	}
	return g.Wait()
}

// AppIndexByName implements the lookup a name-addressed CLI needs before it
// can call AppInfo or ControlApp, neither of which the registry indexes by
// name itself (spec.md's tables are positional, keyed by slot index).
func (m *Manager) AppIndexByName(name string) (int, bool) {
	m.registry.Lock()
	defer m.registry.Unlock()
	for i, app := range m.registry.Apps {
		if app.State != registry.StateUndefined && app.Task.MainTaskName == name {
			return i, true
		}
	}
	return 0, false
}

// AppInfo implements C9 for a single app index, resolving AddressesAreValid
// through the manager's own OSAL instance.
func (m *Manager) AppInfo(appIndex int) (registry.AppInfo, error) {
	return m.registry.Info(appIndex, m.osal.ModuleInfo)
}

// AllAppInfo returns an AppInfo snapshot for every non-UNDEFINED slot, in
// table order, for the status subcommand.
func (m *Manager) AllAppInfo() []registry.AppInfo {
	var out []registry.AppInfo
	for i := range m.registry.Apps {
		info, err := m.AppInfo(i)
		if err == nil {
			out = append(out, info)
		}
	}
	return out
}

// ControlApp writes req into the named app's control block, the way an
// operator command would; C5's next scan tick picks it up. Returns
// registry.ErrUnknownApp if no app by that name is currently registered.
func (m *Manager) ControlApp(name string, req registry.ControlRequest) error {
	idx, ok := m.AppIndexByName(name)
	if !ok {
		return fmt.Errorf("control app %q: %w", name, registry.ErrUnknownApp)
	}
	m.registry.Lock()
	m.registry.Apps[idx].Control.Request = req
	m.registry.Unlock()
	m.cmds.Bump()
	return nil
}

// Run starts the scan scheduler and, if MetricsAddr is set, a Prometheus
// scrape endpoint. Blocks until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	if m.cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: m.cfg.MetricsAddr, Handler: m.metrics.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				m.logger.Error("manager: metrics server stopped", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()
	}
	return m.sched.Run(ctx)
}
