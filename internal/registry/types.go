// Package registry holds the process-wide application, library, and task
// tables (spec.md §3), their invariants, and the shared-state lock and
// info-query operation of C9. Every other component either claims a slot
// here (C3, C4) or walks these tables under the shared lock (C5, C6, C7,
// C8).
package registry

import "alm/internal/osal"

// MaxNameLength bounds app and library names, mirroring OS_MAX_API_NAME's
// role of bounding the name fields copied into AppRecord/LibRecord.
const MaxNameLength = 64

// AppState is the ordered lifecycle state of an AppRecord. The ordering
// itself is load-bearing: spec.md §3 states the invariant
// WAITING > RUNNING > EARLY_INIT > UNDEFINED, and C5's scan body compares
// states with ">" directly.
type AppState int

const (
	StateUndefined AppState = iota
	StateEarlyInit
	StateLateInit
	StateRunning
	StateWaiting
	StateStopped
)

func (s AppState) String() string {
	switch s {
	case StateUndefined:
		return "UNDEFINED"
	case StateEarlyInit:
		return "EARLY_INIT"
	case StateLateInit:
		return "LATE_INIT"
	case StateRunning:
		return "RUNNING"
	case StateWaiting:
		return "WAITING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// AppType distinguishes built-in core apps from dynamically loaded ones.
type AppType int

const (
	TypeCore AppType = iota
	TypeExternal
)

func (t AppType) String() string {
	if t == TypeCore {
		return "CORE"
	}
	return "EXTERNAL"
}

// ExceptionAction is the recovery policy for an app that raises an
// exception, clamped at app-create time per spec.md §4.2.
type ExceptionAction int

const (
	ExceptionRestartApp ExceptionAction = iota
	ExceptionProcRestart
)

// ControlRequest is the externally-written intent field spec.md §6 orders
// as APP_RUN < APP_EXIT < APP_ERROR < SYS_DELETE < SYS_RESTART < SYS_RELOAD
// < SYS_EXCEPTION. Any value greater than AppRun observed while RUNNING
// arms the grace timer (C5).
type ControlRequest int

const (
	AppRun ControlRequest = iota + 1
	AppExit
	AppError
	SysDelete
	SysRestart
	SysReload
	SysException
)

func (c ControlRequest) String() string {
	switch c {
	case AppRun:
		return "APP_RUN"
	case AppExit:
		return "APP_EXIT"
	case AppError:
		return "APP_ERROR"
	case SysDelete:
		return "SYS_DELETE"
	case SysRestart:
		return "SYS_RESTART"
	case SysReload:
		return "SYS_RELOAD"
	case SysException:
		return "SYS_EXCEPTION"
	default:
		return "UNKNOWN"
	}
}

// StartParams are the parameters C2 extracts from a startup-script record
// and C4/C6 use to (re)create an app. They are snapshotted by value before
// C6 hands an app to C7, so restart/reload can re-create identically even
// though the AppRecord slot they came from may be freed mid-operation.
type StartParams struct {
	Name            string
	EntrySymbol     string
	FilePath        string
	StackSize       uint32
	Priority        uint8
	ExceptionAction ExceptionAction
}

// TaskInfo records the main task spawned for an app by C4.
type TaskInfo struct {
	MainTaskID   osal.TaskID
	MainTaskName string
}

// ControlBlock is the operator/self-reported intent field and its grace
// countdown, both mutated by C5/C6 under the registry lock.
type ControlBlock struct {
	Request      ControlRequest
	GraceTimerMS int64
}

// AppRecord is one external or core application slot.
type AppRecord struct {
	State        AppState
	Type         AppType
	ModuleHandle osal.ModuleHandle
	Start        StartParams
	Task         TaskInfo
	Control      ControlBlock
}

// LibRecord is one shared-library slot. Libraries are never torn down once
// loaded successfully (spec.md §3: "permanent for the process lifetime").
type LibRecord struct {
	InUse        bool
	Name         string
	ModuleHandle osal.ModuleHandle
}

// TaskRecord tracks one task — main or child — owned by an app, indexed by
// the OSAL-provided task-to-array-index mapping.
type TaskRecord struct {
	InUse            bool
	AppIndex         int
	TaskID           osal.TaskID
	TaskName         string
	ExecutionCounter uint32
}
