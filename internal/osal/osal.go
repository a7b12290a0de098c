package osal

import "log/slog"

// OSAL is the port this module consumes from its operating-system
// abstraction layer: module loading and symbol resolution (C3/C4), task
// lifecycle (C4/C7/C8), and owner-scoped object enumeration (C8). It is
// named and shaped after osapi-os-loader.h plus the additional primitives
// spec.md §6 lists under "OSAL-side contract consumed".
type OSAL interface {
	ModuleLoad(name, filePath string) (ModuleHandle, error)
	ModuleUnload(h ModuleHandle) error
	ModuleInfo(h ModuleHandle) (ModuleInfo, error)
	SymbolLookup(h ModuleHandle, symbol string) (EntryFunc, error)

	TaskCreate(params TaskCreateParams) (TaskID, error)
	TaskDelete(id TaskID) error
	ConvertToArrayIndex(id TaskID) (int, error)
	TaskIsAlive(id TaskID) bool

	ForEachObject(owner TaskID, fn func(ObjectID))
	IdentifyObject(id ObjectID) Kind
	DeleteObject(id ObjectID) error
	CreateObject(owner TaskID, kind Kind) ObjectID
}

// Simulator is the concrete, in-process implementation of OSAL: modules are
// registered Go closures keyed by file path, tasks are goroutines, and
// owned objects are bookkeeping records rather than real kernel handles.
type Simulator struct {
	modules *moduleTable
	tasks   *taskTable
	objects *objectTable
	logger  *slog.Logger
}

// NewSimulator constructs an OSAL simulator. A nil logger falls back to
// slog.Default(), matching the rest of this codebase's "never a hidden
// global, but accept a safe default" convention.
func NewSimulator(logger *slog.Logger) *Simulator {
	return &Simulator{
		modules: newModuleTable(),
		tasks:   newTaskTable(),
		objects: newObjectTable(),
		logger:  logger,
	}
}

var _ OSAL = (*Simulator)(nil)
