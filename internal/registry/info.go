package registry

import "alm/internal/osal"

// AppInfo is the immutable snapshot C9's info-query returns. It carries
// more than name/state: SPEC_FULL.md's SUPPLEMENTED FEATURES adds StackSize,
// Priority, ExceptionAction and a child-task count, matching the fields
// CFE_ES_GetAppInfoInternal actually populates in the original.
type AppInfo struct {
	Name              string
	State             AppState
	Type              AppType
	FilePath          string
	EntrySymbol       string
	StackSize         uint32
	Priority          uint8
	ExceptionAction   ExceptionAction
	MainTaskID        osal.TaskID
	ChildTaskCount    int
	AddressesAreValid bool
}

// ModuleInfoFunc mirrors the OSAL module-info call C9 uses to compute
// AddressesAreValid; it's a function value so callers can pass an
// osal.OSAL without the registry package importing a concrete OSAL impl.
type ModuleInfoFunc func(osal.ModuleHandle) (osal.ModuleInfo, error)

// Info implements C9's info-query: acquire the lock, copy an immutable
// snapshot, release. AddressesAreValid is true only when the module-info
// call succeeds (spec.md §4.9); this simulator's ModuleInfo has no
// code/data/bss address fields to size-check against, so "succeeds" is the
// whole criterion here rather than succeeds-and-fits.
func (r *Registry) Info(appIndex int, moduleInfo ModuleInfoFunc) (AppInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if appIndex < 0 || appIndex >= len(r.Apps) {
		return AppInfo{}, ErrUnknownApp
	}
	app := r.Apps[appIndex]
	if app.State == StateUndefined {
		return AppInfo{}, ErrUnknownApp
	}

	addressesValid := false
	if moduleInfo != nil {
		if _, err := moduleInfo(app.ModuleHandle); err == nil {
			addressesValid = true
		}
	}

	return AppInfo{
		Name:              app.Task.MainTaskName,
		State:             app.State,
		Type:              app.Type,
		FilePath:          app.Start.FilePath,
		EntrySymbol:       app.Start.EntrySymbol,
		StackSize:         app.Start.StackSize,
		Priority:          app.Start.Priority,
		ExceptionAction:   app.Start.ExceptionAction,
		MainTaskID:        app.Task.MainTaskID,
		ChildTaskCount:    r.ChildTaskCount(appIndex),
		AddressesAreValid: addressesValid,
	}, nil
}
