// Package loader implements C3 (shared-library load) and C4 (app create):
// resolve a startup-script record against the OSAL, bind it into the
// registry, and for apps, spawn the main task.
package loader

import (
	"context"
	"fmt"
	"log/slog"

	"alm/internal/events"
	"alm/internal/osal"
	"alm/internal/registry"
	"alm/internal/startup"
)

// Loader binds the registry and OSAL together for the two creation paths.
// It implements startup.AppCreator and startup.LibLoader so C2's dispatcher
// can drive it directly.
type Loader struct {
	reg    *registry.Registry
	os     osal.OSAL
	events *events.Sink
	logger *slog.Logger
}

// New constructs a Loader. A nil logger falls back to slog.Default().
func New(reg *registry.Registry, sim osal.OSAL, sink *events.Sink, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = events.New(logger)
	}
	return &Loader{reg: reg, os: sim, events: sink, logger: logger}
}

var _ startup.AppCreator = (*Loader)(nil)
var _ startup.LibLoader = (*Loader)(nil)

// LoadLibrary implements C3: claim-or-find the name, load the module,
// resolve and invoke its init symbol synchronously (skipped when the symbol
// is empty or the literal "NULL"), commit on success. Each failure path
// unloads the module it loaded and releases the slot before returning.
// Libraries are never torn down once loaded (spec.md §3), so there is no
// corresponding unload path here.
func (l *Loader) LoadLibrary(ctx context.Context, e startup.Entry) error {
	idx, already, err := l.reg.ClaimLibrarySlot(e.Name)
	if err != nil {
		l.events.Error(events.LibLoadError, "library slot claim failed", "name", e.Name, "error", err)
		return fmt.Errorf("load library %q: %w", e.Name, err)
	}
	if already {
		l.events.Info(events.LibAlreadyLoaded, "library already loaded", "name", e.Name, "index", idx)
		return nil
	}

	handle, err := l.os.ModuleLoad(e.Name, e.FilePath)
	if err != nil {
		l.reg.ReleaseLibrarySlot(idx)
		l.events.Error(events.LibLoadError, "module load failed", "name", e.Name, "path", e.FilePath, "error", err)
		return fmt.Errorf("%s: %w", e.Name, registry.ErrLoadLib)
	}

	// An empty or "NULL" init symbol means the library has no init entry.
	var initFn osal.EntryFunc = func(context.Context) error { return nil }
	if e.EntrySymbol != "" && e.EntrySymbol != "NULL" {
		initFn, err = l.os.SymbolLookup(handle, e.EntrySymbol)
	}
	if err != nil {
		_ = l.os.ModuleUnload(handle)
		l.reg.ReleaseLibrarySlot(idx)
		l.events.Error(events.LibLoadError, "init symbol lookup failed", "name", e.Name, "symbol", e.EntrySymbol, "error", err)
		return fmt.Errorf("%s: %w", e.Name, registry.ErrLoadLib)
	}

	if err := initFn(ctx); err != nil {
		_ = l.os.ModuleUnload(handle)
		l.reg.ReleaseLibrarySlot(idx)
		l.events.Error(events.LibLoadError, "init entry returned error", "name", e.Name, "error", err)
		return fmt.Errorf("%s: %w", e.Name, registry.ErrLoadLib)
	}

	l.reg.CommitLibrary(idx, handle)
	l.events.Info(events.LibLoaded, "library loaded", "name", e.Name, "index", idx)
	return nil
}

// CreateApp implements C4 by delegating to CreateAppFromParams with
// TypeExternal, the type every startup-script app record describes.
func (l *Loader) CreateApp(ctx context.Context, e startup.Entry) error {
	return l.CreateAppFromParams(ctx, registry.TypeExternal, registry.StartParams{
		Name:            e.Name,
		EntrySymbol:     e.EntrySymbol,
		FilePath:        e.FilePath,
		StackSize:       e.StackSize,
		Priority:        e.Priority,
		ExceptionAction: e.ExceptionAction,
	})
}

// CreateAppFromParams implements C4's claim/load/spawn/commit sequence
// directly from a StartParams value, letting C6 re-invoke it for restart
// and reload without re-parsing a startup-script record.
func (l *Loader) CreateAppFromParams(ctx context.Context, typ registry.AppType, sp registry.StartParams) error {
	idx, err := l.reg.ClaimAppSlot()
	if err != nil {
		l.events.Error(events.AppCreateError, "app slot claim failed", "name", sp.Name, "error", err)
		return fmt.Errorf("create app %q: %w", sp.Name, err)
	}

	handle, err := l.os.ModuleLoad(sp.Name, sp.FilePath)
	if err != nil {
		l.reg.RevertAppSlot(idx)
		l.events.Error(events.AppCreateError, "module load failed", "name", sp.Name, "path", sp.FilePath, "error", err)
		return fmt.Errorf("%s: %w", sp.Name, registry.ErrAppCreate)
	}

	entry, err := l.os.SymbolLookup(handle, sp.EntrySymbol)
	if err != nil {
		_ = l.os.ModuleUnload(handle)
		l.reg.RevertAppSlot(idx)
		l.events.Error(events.AppCreateError, "entry symbol lookup failed", "name", sp.Name, "symbol", sp.EntrySymbol, "error", err)
		return fmt.Errorf("%s: %w", sp.Name, registry.ErrAppCreate)
	}

	l.reg.PopulateApp(idx, typ, handle, sp)

	taskID, err := l.os.TaskCreate(osal.TaskCreateParams{
		Name:      sp.Name,
		Entry:     entry,
		StackSize: sp.StackSize,
		Priority:  sp.Priority,
	})
	if err != nil {
		// Module leak on this path is a known, preserved gap: see
		// SPEC_FULL.md's open-question decisions. Unlike the symbol-lookup
		// failure above, the module is deliberately not unloaded here.
		l.reg.RevertAppSlot(idx)
		l.events.Error(events.AppCreateError, "main task create failed", "name", sp.Name, "error", err)
		return fmt.Errorf("%s: %w", sp.Name, registry.ErrAppCreate)
	}

	taskIdx, err := l.os.ConvertToArrayIndex(taskID)
	if err != nil {
		// The task is already running at this point; tearing down its
		// module out from under it would be worse than leaking the handle.
		l.reg.RevertAppSlot(idx)
		l.events.Error(events.AppCreateError, "task index conversion failed", "name", sp.Name, "error", err)
		return fmt.Errorf("%s: %w", sp.Name, registry.ErrAppCreate)
	}

	if err := l.reg.CommitApp(idx, taskID, taskIdx); err != nil {
		l.events.Error(events.AppCreateError, "commit failed", "name", sp.Name, "error", err)
		return fmt.Errorf("%s: %w", sp.Name, registry.ErrAppCreate)
	}

	l.events.Info(events.AppCreated, "app created", "name", sp.Name, "index", idx, "type", typ.String())
	return nil
}
