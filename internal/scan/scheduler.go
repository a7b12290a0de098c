package scan

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"alm/internal/events"
	"alm/internal/registry"
)

// AppCleaner is C7 as seen by the scheduler. okID and errID let each caller
// pick the event pair CleanupApp reports, since APP_EXIT, APP_ERROR, and
// SYS_DELETE all route through the same C7 call but must be distinguishable
// in the event log.
type AppCleaner interface {
	CleanupApp(ctx context.Context, appIndex int, okID, errID events.ID) error
}

// AppRecreator is C4 as seen by the scheduler, for the restart/reload path.
type AppRecreator interface {
	CreateAppFromParams(ctx context.Context, typ registry.AppType, sp registry.StartParams) error
}

// Scheduler drives C5 (the scan decision and table walk) and C6 (the
// per-app control-request step it invokes once a grace timer expires).
type Scheduler struct {
	reg     *registry.Registry
	cleaner AppCleaner
	loader  AppRecreator
	cmds    *CommandCounter
	events  *events.Sink
	logger  *slog.Logger
	cfg     Config

	mu    sync.Mutex
	state ScanState

	ticker *time.Ticker
}

// New constructs a Scheduler. cmds may be nil, in which case the scheduler
// behaves as though no operator command ever preempts the normal interval.
func New(reg *registry.Registry, cleaner AppCleaner, loader AppRecreator, cmds *CommandCounter, sink *events.Sink, logger *slog.Logger, cfg Config) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = events.New(logger)
	}
	if cmds == nil {
		cmds = &CommandCounter{}
	}
	return &Scheduler{
		reg:     reg,
		cleaner: cleaner,
		loader:  loader,
		cmds:    cmds,
		events:  sink,
		logger:  logger,
		cfg:     cfg,
		state:   ScanState{backgroundTimer: cfg.scanRateMS()},
	}
}

// Run blocks, ticking at cfg.ScanRate until ctx is cancelled, the way
// supervisor.go's Run/tick pair drives its own background loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ticker = time.NewTicker(s.cfg.ScanRate)
	defer s.ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-s.ticker.C:
			elapsed := now.Sub(last).Milliseconds()
			last = now
			s.Tick(ctx, elapsed)
		}
	}
}

// Tick implements C5's top-level decision: idle unless a command arrived,
// an app is already winding down, or the background timer has elapsed,
// in which case it resets the timer, snapshots the command counter, and
// walks the table. Returns true iff the walk leaves pending changes,
// signalling a caller-managed driver to rerun sooner than ScanRate.
func (s *Scheduler) Tick(ctx context.Context, elapsedMS int64) bool {
	s.mu.Lock()
	cmdCount := s.cmds.Load()
	if s.state.pendingChanges == 0 && cmdCount == s.state.lastCommandCount && s.state.backgroundTimer > elapsedMS {
		s.state.backgroundTimer -= elapsedMS
		s.mu.Unlock()
		return false
	}
	s.state.backgroundTimer = s.cfg.scanRateMS()
	s.state.lastCommandCount = cmdCount
	s.state.pendingChanges = 0
	s.mu.Unlock()

	s.events.Info(events.ScanTick, "scan tick", "elapsed_ms", elapsedMS)
	pending := s.scanBody(ctx, elapsedMS)

	s.mu.Lock()
	if pending {
		s.state.pendingChanges++
	}
	s.mu.Unlock()
	return pending
}

// scanBody implements C5's per-app walk. It re-acquires the registry lock
// once per index rather than holding it for the whole loop: the record
// must be re-read after every drop-call-reacquire around C6 (§5's
// "not atomic" requirement), and re-locking per index is the simplest way
// to guarantee that without caching a pointer across the gap.
func (s *Scheduler) scanBody(ctx context.Context, elapsedMS int64) bool {
	pending := false

	// Apps is fixed-capacity for the registry's lifetime (spec.md §3), so
	// its length can be read without holding the lock.
	for i := 0; i < len(s.reg.Apps); i++ {
		s.reg.Lock()
		app := s.reg.Apps[i]
		if app.Type != registry.TypeExternal || app.State == registry.StateUndefined {
			s.reg.Unlock()
			continue
		}

		switch {
		case app.State > registry.StateRunning:
			pending = true
			grace := app.Control.GraceTimerMS - elapsedMS
			if grace < 0 {
				grace = 0
			}
			s.reg.Apps[i].Control.GraceTimerMS = grace
			s.reg.Unlock()

			if grace == 0 {
				s.processControl(ctx, i)
			}

		case app.State == registry.StateRunning && app.Control.Request > registry.AppRun:
			s.reg.Apps[i].State = registry.StateWaiting
			s.reg.Apps[i].Control.GraceTimerMS = s.cfg.killTimeoutMS()
			s.reg.Unlock()

		default:
			s.reg.Unlock()
		}
	}

	return pending
}
