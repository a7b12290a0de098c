package registry

import (
	"fmt"
	"sync"

	"alm/internal/osal"
)

// Registry is the process-wide, fixed-capacity collection of AppRecord,
// LibRecord, and TaskRecord slots plus their counters, guarded by a single
// shared-data mutex (spec.md §3, §5, §9).
//
// Locking discipline, enforced by convention rather than the type system
// (same as the C original this is grounded on): acquire Lock/Unlock around
// any read or write of Apps/Libs/Tasks or the counters. Never hold the lock
// across an OSAL call that may block, a peer-subsystem cleanup hook, or a
// call into the control-request processor (C6) from the scan scheduler
// (C5) — see internal/scan for where that drop-call-reacquire pattern
// lives. Methods whose doc comment says "caller must hold Lock" assume the
// caller already does; methods without that note take the lock themselves
// and are safe to call standalone.
type Registry struct {
	mu sync.Mutex

	Apps  []AppRecord
	Libs  []LibRecord
	Tasks []TaskRecord

	CoreApps        int
	ExternalApps    int
	RegisteredLibs  int
	RegisteredTasks int
}

// New constructs a Registry with fixed-capacity tables sized per config.
func New(maxApps, maxLibs, maxTasks int) *Registry {
	return &Registry{
		Apps:  make([]AppRecord, maxApps),
		Libs:  make([]LibRecord, maxLibs),
		Tasks: make([]TaskRecord, maxTasks),
	}
}

// Lock acquires the shared-data mutex.
func (r *Registry) Lock() { r.mu.Lock() }

// Unlock releases the shared-data mutex.
func (r *Registry) Unlock() { r.mu.Unlock() }

// ClaimLibrarySlot implements C3 steps 2-4: linear-scan for a name match
// among in-use entries (returning AlreadyLoaded without modifying the
// table), else claim the first free slot found. Self-contained: locks and
// unlocks internally since nothing here blocks.
func (r *Registry) ClaimLibrarySlot(name string) (idx int, alreadyLoaded bool, err error) {
	if len(name) == 0 || len(name) >= MaxNameLength {
		return 0, false, ErrBadArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	free := -1
	for i, lib := range r.Libs {
		if lib.InUse {
			if lib.Name == name {
				return i, true, nil
			}
			continue
		}
		if free == -1 {
			free = i
		}
	}
	if free == -1 {
		return 0, false, ErrNoFreeSlot
	}

	r.Libs[free] = LibRecord{InUse: true, Name: name}
	return free, false, nil
}

// CommitLibrary implements C3's success epilogue: record the module handle
// and increment RegisteredLibs.
func (r *Registry) CommitLibrary(idx int, handle osal.ModuleHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Libs[idx].ModuleHandle = handle
	r.RegisteredLibs++
}

// ReleaseLibrarySlot implements C3's failure epilogue: clear InUse. The
// spec calls this a lock-free single-bit write in the original; Go's
// memory model has no such exemption; unobserved lack of synchronization
// here would be a data race, so this still takes the lock.
func (r *Registry) ReleaseLibrarySlot(idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Libs[idx] = LibRecord{}
}

// ClaimAppSlot implements C4 step 2: find the first UNDEFINED slot, zero
// it, and mark it EARLY_INIT so concurrent scans see it as owned.
func (r *Registry) ClaimAppSlot() (idx int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, app := range r.Apps {
		if app.State == StateUndefined {
			r.Apps[i] = AppRecord{State: StateEarlyInit}
			return i, nil
		}
	}
	return 0, ErrNoFreeSlot
}

// RevertAppSlot implements the C4 failure paths that reset a claimed slot
// back to UNDEFINED (steps 3, 4, 6).
func (r *Registry) RevertAppSlot(idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Apps[idx] = AppRecord{}
}

// PopulateApp implements C4 step 5: fill in type and start parameters,
// arm APP_RUN, zero the grace timer.
func (r *Registry) PopulateApp(idx int, typ AppType, moduleHandle osal.ModuleHandle, start StartParams) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app := &r.Apps[idx]
	app.Type = typ
	app.ModuleHandle = moduleHandle
	app.Start = start
	app.Task.MainTaskName = start.Name
	app.Control = ControlBlock{Request: AppRun, GraceTimerMS: 0}
}

// CommitApp implements C4 step 7: bind the main task record, bump
// counters, and move the app to RUNNING. The spec leaves "the app
// announces it finished late init" out of scope (that's the OSAL's task
// code, not this module); treating a successfully spawned main task as
// immediately RUNNING is this implementation's resolution of that gap,
// since otherwise no app would ever be visible to C5's scan.
func (r *Registry) CommitApp(idx int, taskID osal.TaskID, taskIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if taskIndex < 0 || taskIndex >= len(r.Tasks) {
		return fmt.Errorf("task index %d out of range: %w", taskIndex, ErrBadArgument)
	}

	app := &r.Apps[idx]
	app.Task.MainTaskID = taskID
	app.State = StateRunning

	r.Tasks[taskIndex] = TaskRecord{
		InUse:    true,
		AppIndex: idx,
		TaskID:   taskID,
		TaskName: app.Task.MainTaskName,
	}
	r.RegisteredTasks++
	if app.Type == TypeExternal {
		r.ExternalApps++
	} else {
		r.CoreApps++
	}
	return nil
}

// ClaimTaskSlot reserves a TaskRecord for a child task spawned after app
// creation, at the OSAL-provided array index.
func (r *Registry) ClaimTaskSlot(taskIndex, appIndex int, id osal.TaskID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if taskIndex < 0 || taskIndex >= len(r.Tasks) {
		return fmt.Errorf("task index %d out of range: %w", taskIndex, ErrBadArgument)
	}
	if r.Tasks[taskIndex].InUse {
		return fmt.Errorf("task index %d: %w", taskIndex, ErrNoFreeSlot)
	}
	r.Tasks[taskIndex] = TaskRecord{InUse: true, AppIndex: appIndex, TaskID: id, TaskName: name}
	r.RegisteredTasks++
	return nil
}

// ReleaseTaskSlot invalidates a TaskRecord (used by C8 after a successful
// delete) and decrements RegisteredTasks. Caller must hold Lock.
func (r *Registry) ReleaseTaskSlot(taskIndex int) {
	r.Tasks[taskIndex] = TaskRecord{}
	r.RegisteredTasks--
}

// ChildTasksOf returns the indices of TaskRecords owned by appIndex other
// than the main task, in table order. Caller must hold Lock.
func (r *Registry) ChildTasksOf(appIndex int, mainTaskID osal.TaskID) []int {
	var out []int
	for i, t := range r.Tasks {
		if t.InUse && t.AppIndex == appIndex && t.TaskID != mainTaskID {
			out = append(out, i)
		}
	}
	return out
}

// ChildTaskCount reports how many child tasks (excluding main) are owned by
// appIndex. Caller must hold Lock.
func (r *Registry) ChildTaskCount(appIndex int) int {
	app := r.Apps[appIndex]
	n := 0
	for _, t := range r.Tasks {
		if t.InUse && t.AppIndex == appIndex && t.TaskID != app.Task.MainTaskID {
			n++
		}
	}
	return n
}

// FinishCleanup implements C7 steps 4-6 under lock: decrement
// ExternalApps/CoreApps and reset the slot to UNDEFINED. Caller must hold
// Lock.
func (r *Registry) FinishCleanup(appIndex int) {
	app := r.Apps[appIndex]
	if app.Type == TypeExternal {
		r.ExternalApps--
	} else {
		r.CoreApps--
	}
	r.Apps[appIndex] = AppRecord{}
}

// CheckInvariants re-derives invariants 1-4 of spec.md §3 from the current
// table contents and reports the first violation found, if any. Invariant 1
// is checked only as "no live module handle"; invariants 5 and 6, which
// concern what C4 and C7 leave behind, are not checked here.
// Intended for tests; never called from production control flow. Caller
// must hold Lock.
func (r *Registry) CheckInvariants() error {
	externalCount := 0
	for i, app := range r.Apps {
		if app.Type == TypeExternal && app.State != StateUndefined {
			externalCount++
		}
		if app.State == StateUndefined {
			if app.ModuleHandle.Valid() {
				return fmt.Errorf("invariant 1 violated: app %d UNDEFINED with live module handle", i)
			}
		}
	}
	if externalCount != r.ExternalApps {
		return fmt.Errorf("invariant 3 violated: counted %d external apps, ExternalApps=%d", externalCount, r.ExternalApps)
	}

	seenLibNames := make(map[string]bool, len(r.Libs))
	for i, lib := range r.Libs {
		if !lib.InUse {
			continue
		}
		if seenLibNames[lib.Name] {
			return fmt.Errorf("invariant 4 violated: duplicate library name %q at slot %d", lib.Name, i)
		}
		seenLibNames[lib.Name] = true
	}

	for i, task := range r.Tasks {
		if !task.InUse {
			continue
		}
		if task.AppIndex < 0 || task.AppIndex >= len(r.Apps) || r.Apps[task.AppIndex].State == StateUndefined {
			return fmt.Errorf("invariant 2 violated: task %d references app %d with state UNDEFINED", i, task.AppIndex)
		}
	}
	return nil
}
