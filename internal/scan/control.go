package scan

import (
	"context"

	"alm/internal/events"
	"alm/internal/registry"
)

// processControl implements C6: snapshot the app's start params and intent
// by value (the slot may be freed mid-operation), then dispatch. C6 never
// fails outward — every branch ends in an event and, for the two
// self-transmuting cases, an overwritten control_request rather than a
// propagated error.
func (s *Scheduler) processControl(ctx context.Context, appIndex int) {
	s.reg.Lock()
	app := s.reg.Apps[appIndex]
	sp := app.Start
	typ := app.Type
	req := app.Control.Request
	s.reg.Unlock()

	ctx, span := startControlSpan(ctx, appIndex, req)
	var err error
	defer func() { endControlSpan(span, err) }()

	switch req {
	case registry.AppExit:
		err = s.cleaner.CleanupApp(ctx, appIndex, events.AppExit, events.AppExitError)

	case registry.AppError:
		err = s.cleaner.CleanupApp(ctx, appIndex, events.AppErrExit, events.AppErrExitError)

	case registry.SysDelete:
		err = s.cleaner.CleanupApp(ctx, appIndex, events.AppStop, events.AppStopError)

	case registry.SysRestart:
		s.cleanupThenRecreate(ctx, appIndex, typ, sp, events.AppRestart)

	case registry.SysReload:
		s.cleanupThenRecreate(ctx, appIndex, typ, sp, events.AppReload)

	case registry.SysException:
		s.events.Error(events.ExceptionTripped, "exception observed, forcing delete", "index", appIndex, "name", sp.Name)
		s.forceDelete(appIndex)

	default:
		s.events.Error(events.ControlDenied, "unrecognized control request, forcing delete", "index", appIndex, "request", int(req))
		s.forceDelete(appIndex)
	}
}

// cleanupThenRecreate implements the SYS_RESTART / SYS_RELOAD rows of
// C6's table: C7, and only on success, C4 with the snapshotted params.
func (s *Scheduler) cleanupThenRecreate(ctx context.Context, appIndex int, typ registry.AppType, sp registry.StartParams, id events.ID) {
	if err := s.cleaner.CleanupApp(ctx, appIndex, events.AppDeleted, events.AppCleanupError); err != nil {
		return
	}
	if err := s.loader.CreateAppFromParams(ctx, typ, sp); err != nil {
		s.events.Error(id, "recreate after cleanup failed", "name", sp.Name, "error", err)
		return
	}
	s.events.Info(id, "recreate after cleanup succeeded", "name", sp.Name)
}

// forceDelete overwrites control_request with SYS_DELETE without invoking
// C7 yet; the next scan tick observes the (already-expired) grace timer
// and this time takes the SYS_DELETE branch, preventing the exception/
// unknown-state event from ever firing twice for the same entry (P6).
func (s *Scheduler) forceDelete(appIndex int) {
	s.reg.Lock()
	s.reg.Apps[appIndex].Control.Request = registry.SysDelete
	s.reg.Unlock()
}
