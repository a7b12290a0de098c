// Package events names the lifecycle event taxonomy every other package
// reports through, grounded on the distinct CFE_EVS_SendEvent call at each
// success/failure branch of the original app-lifecycle code. Each branch
// there sent one named, leveled event with contextual fields; here that
// becomes one structured log/slog record per ID.
package events

import "log/slog"

// ID names one lifecycle event. Kept as a string type rather than an int
// enum so log output is self-describing without a lookup table.
type ID string

const (
	LibLoaded        ID = "LIB_LOADED"
	LibAlreadyLoaded ID = "LIB_ALREADY_LOADED"
	LibLoadError     ID = "LIB_LOAD_ERROR"

	AppCreated      ID = "APP_CREATED"
	AppCreateError  ID = "APP_CREATE_ERROR"
	AppRestart      ID = "APP_RESTART"
	AppReload       ID = "APP_RELOAD"
	AppDeleted      ID = "APP_DELETED"
	AppCleanupError ID = "APP_CLEANUP_ERROR"

	// The three CleanupApp-reporting event pairs, one per control request
	// that routes through C7: plain exit, exit-on-error, and an
	// operator/SYS_DELETE stop. Kept distinct so a log consumer can tell
	// which request tore an app down without re-deriving it from context.
	AppExit         ID = "APP_EXIT"
	AppExitError    ID = "APP_EXIT_ERROR"
	AppErrExit      ID = "APP_ERREXIT"
	AppErrExitError ID = "APP_ERREXIT_ERROR"
	AppStop         ID = "APP_STOP"
	AppStopError    ID = "APP_STOP_ERROR"

	TaskCleanupError ID = "TASK_CLEANUP_ERROR"
	ExceptionTripped ID = "EXCEPTION_TRIPPED"

	ScanTick      ID = "SCAN_TICK"
	ControlDenied ID = "CONTROL_DENIED"
)

// Sink wraps a *slog.Logger and stamps every record with its event ID,
// keeping callers from having to repeat "event", string(id) everywhere.
type Sink struct {
	logger *slog.Logger
	hook   func(ID)
}

// New wraps logger, falling back to slog.Default when nil.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

// SetHook registers a callback invoked with every emitted event's ID, after
// it has been logged. internal/manager uses this to drive internal/metrics'
// counters without the loader/cleanup/scan packages needing to know metrics
// exists.
func (s *Sink) SetHook(hook func(ID)) {
	s.hook = hook
}

func (s *Sink) Info(id ID, msg string, args ...any) {
	s.logger.Info(msg, append([]any{"event", string(id)}, args...)...)
	s.fire(id)
}

func (s *Sink) Warn(id ID, msg string, args ...any) {
	s.logger.Warn(msg, append([]any{"event", string(id)}, args...)...)
	s.fire(id)
}

func (s *Sink) Error(id ID, msg string, args ...any) {
	s.logger.Error(msg, append([]any{"event", string(id)}, args...)...)
	s.fire(id)
}

func (s *Sink) fire(id ID) {
	if s.hook != nil {
		s.hook(id)
	}
}
