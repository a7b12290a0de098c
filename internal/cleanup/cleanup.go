// Package cleanup implements C7 (app cleanup) and C8 (task resource sweep):
// tearing an app's tasks and owned OSAL objects down in a fixed order and
// reporting the highest-priority failure encountered, without ever aborting
// the teardown early.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"alm/internal/app/lifecycle"
	"alm/internal/events"
	"alm/internal/osal"
	"alm/internal/registry"
)

// Cleaner owns the registry and OSAL handles needed to tear an app down,
// plus the four external subsystems whose cleanup hooks C7 runs before it
// touches the task table. Any of the four may be nil, in which case its
// hook is simply skipped.
type Cleaner struct {
	reg         *registry.Registry
	os          osal.OSAL
	events      *events.Sink
	logger      *slog.Logger
	hookTimeout time.Duration
	tables      SubsystemCleaner
	bus         SubsystemCleaner
	clock       SubsystemCleaner
	evs         SubsystemCleaner
}

// New constructs a Cleaner. hookTimeout is the per-hook deadline
// lifecycle.DrainAll puts on each pre-teardown hook's context; the
// SubsystemCleaner hooks run synchronously and do not observe that context,
// so the deadline does not cut a slow hook short.
// tables, bus, clock, and evs are the tables/software-bus/time/events
// subsystem stand-ins C7 drains, in that order, before it takes the
// registry lock.
func New(reg *registry.Registry, sim osal.OSAL, sink *events.Sink, logger *slog.Logger, hookTimeout time.Duration, tables, bus, clock, evs SubsystemCleaner) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = events.New(logger)
	}
	if hookTimeout <= 0 {
		hookTimeout = 2 * time.Second
	}
	return &Cleaner{reg: reg, os: sim, events: sink, logger: logger, hookTimeout: hookTimeout, tables: tables, bus: bus, clock: clock, evs: evs}
}

// bestEffortHooks returns the tables/software-bus/time hooks for appIndex,
// skipping any subsystem that was never wired. Their failures are logged
// but never affect CleanupApp's return value, matching CFE_ES_CleanUpApp's
// treatment of CFE_TBL_CleanUpApp, CFE_SB_CleanUpApp, and
// CFE_TIME_CleanUpApp, none of whose return values it inspects.
func (c *Cleaner) bestEffortHooks(appIndex int) []lifecycle.Drainable {
	var hooks []lifecycle.Drainable
	if c.tables != nil {
		hooks = append(hooks, hookAdapter{"tables", appIndex, c.tables})
	}
	if c.bus != nil {
		hooks = append(hooks, hookAdapter{"software_bus", appIndex, c.bus})
	}
	if c.clock != nil {
		hooks = append(hooks, hookAdapter{"time", appIndex, c.clock})
	}
	return hooks
}

// CleanupApp implements C7: run the subsystem cleanup hooks outside the
// registry lock, then do everything invariant-critical — child task
// sweeps, main task sweep, module unload, counter decrement, slot release —
// inside one continuous critical section. Subsystem hooks may acquire peer
// locks so they must stay outside; task-table manipulation must not be
// interleaved with any other writer, so it stays inside one lock/unlock
// pair rather than the drop-reacquire pattern C5 uses around C6.
//
// okID and errID are the events reported on success and failure
// respectively, letting callers distinguish APP_EXIT, APP_ERROR, and
// SYS_DELETE cleanups without CleanupApp needing to know which control
// request triggered it.
func (c *Cleaner) CleanupApp(ctx context.Context, appIndex int, okID, errID events.ID) error {
	for _, err := range lifecycle.DrainAll(ctx, c.hookTimeout, c.bestEffortHooks(appIndex)...) {
		c.events.Warn(events.AppCleanupError, "cleanup hook failed", "index", appIndex, "error", err)
	}

	var firstErr error
	if c.evs != nil {
		if errs := lifecycle.DrainAll(ctx, c.hookTimeout, hookAdapter{"events", appIndex, c.evs}); len(errs) > 0 {
			c.events.Warn(events.AppCleanupError, "events cleanup hook failed", "index", appIndex, "error", errs[0])
			firstErr = fmt.Errorf("events cleanup hook: %w", registry.ErrAppCleanup)
		}
	}

	c.reg.Lock()
	defer c.reg.Unlock()

	app := c.reg.Apps[appIndex]
	mainTaskID := app.Task.MainTaskID
	childTaskIdx := c.reg.ChildTasksOf(appIndex, mainTaskID)

	report := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, idx := range childTaskIdx {
		report(c.sweepAndDeleteTask(ctx, c.reg.Tasks[idx].TaskID))
		c.reg.ReleaseTaskSlot(idx)
	}
	report(c.sweepAndDeleteTask(ctx, mainTaskID))
	for i, t := range c.reg.Tasks {
		if t.InUse && t.AppIndex == appIndex && t.TaskID == mainTaskID {
			c.reg.ReleaseTaskSlot(i)
			break
		}
	}

	if app.Type == registry.TypeExternal {
		if err := c.os.ModuleUnload(app.ModuleHandle); err != nil {
			report(fmt.Errorf("module unload: %w", registry.ErrAppCleanup))
		}
	}

	c.reg.FinishCleanup(appIndex)

	if firstErr != nil {
		c.events.Error(errID, "app cleanup completed with errors", "index", appIndex, "error", firstErr)
		return fmt.Errorf("cleanup app %d: %w", appIndex, firstErr)
	}
	c.events.Info(okID, "app cleaned up", "index", appIndex)
	return nil
}
