package osal

import "context"

// EntryFunc is a task's entry point. The real OSAL resolves a symbol name to
// a raw function-pointer address and casts it; that cast is the FFI
// boundary the design notes call out. Here the boundary is narrowed to a
// single typed function value registered against a module at RegisterModule
// time, validated against the module handle that produced it at
// SymbolLookup time, rather than an unsafe.Pointer cast performed anywhere
// else in the codebase.
type EntryFunc func(ctx context.Context) error

// ModuleInfo mirrors OS_module_prop_t: entry point name, module name, and a
// valid flag gating whether code/data/bss address fields (omitted here,
// since this simulator has no real address space) should be trusted.
type ModuleInfo struct {
	Name       string
	FilePath   string
	EntryPoint string
	Valid      bool
}

// TaskCreateParams mirrors the task_create contract of spec.md §6:
// name, entry address, stack size, priority, floating-point option.
type TaskCreateParams struct {
	Name                 string
	Entry                EntryFunc
	StackSize            uint32
	Priority             uint8
	FloatingPointEnabled bool
}

// Kind classifies an OSAL-owned object for C8's error-priority ladder.
type Kind int

const (
	KindUnknown Kind = iota
	KindChildTask
	KindQueue
	KindBinSem
	KindCountSem
	KindMutex
	KindTimer
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindChildTask:
		return "child_task"
	case KindQueue:
		return "queue"
	case KindBinSem:
		return "bin_sem"
	case KindCountSem:
		return "count_sem"
	case KindMutex:
		return "mutex"
	case KindTimer:
		return "timer"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// ObjectID identifies one OSAL-owned object returned by ForEachObject.
type ObjectID struct {
	Handle
	Kind  Kind
	Owner TaskID
}
