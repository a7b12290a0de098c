package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"alm/internal/events"
	"alm/internal/osal"
	"alm/internal/registry"
)

type fakeCleaner struct {
	calls []int
	err   error
}

func (f *fakeCleaner) CleanupApp(_ context.Context, appIndex int, _, _ events.ID) error {
	f.calls = append(f.calls, appIndex)
	return f.err
}

type fakeRecreator struct {
	calls []registry.StartParams
	err   error
}

func (f *fakeRecreator) CreateAppFromParams(_ context.Context, _ registry.AppType, sp registry.StartParams) error {
	f.calls = append(f.calls, sp)
	return f.err
}

func newRunningApp(t *testing.T, r *registry.Registry, req registry.ControlRequest) int {
	t.Helper()
	idx, err := r.ClaimAppSlot()
	require.NoError(t, err)
	r.PopulateApp(idx, registry.TypeExternal, osal.ModuleHandle{}, registry.StartParams{Name: "FOO"})
	require.NoError(t, r.CommitApp(idx, osal.TaskID{}, idx))
	r.Lock()
	r.Apps[idx].Control.Request = req
	r.Unlock()
	return idx
}

// P4: the grace window must fully elapse before C6 runs.
func TestGraceWindowNotTriggeredEarly(t *testing.T) {
	r := registry.New(4, 4, 8)
	idx := newRunningApp(t, r, registry.AppExit)

	cleaner := &fakeCleaner{}
	cmds := &CommandCounter{}
	s := New(r, cleaner, &fakeRecreator{}, cmds, nil, nil, Config{ScanRate: 100 * time.Millisecond, KillTimeoutTicks: 3})

	cmds.Bump() // force the first tick to scan regardless of the fresh background timer
	s.Tick(context.Background(), 0) // arms WAITING, grace = 300ms
	require.Equal(t, registry.StateWaiting, r.Apps[idx].State)

	s.Tick(context.Background(), 150)
	require.Empty(t, cleaner.calls)
	require.Equal(t, int64(150), r.Apps[idx].Control.GraceTimerMS)

	s.Tick(context.Background(), 150)
	require.Len(t, cleaner.calls, 1)
	require.Equal(t, idx, cleaner.calls[0])
}

// Scenario 4 (restart cycle): C7 then C4 with identical params on success.
func TestRestartCycleRecreatesWithSameParams(t *testing.T) {
	r := registry.New(4, 4, 8)
	newRunningApp(t, r, registry.SysRestart)

	cleaner := &fakeCleaner{}
	recreator := &fakeRecreator{}
	cmds := &CommandCounter{}
	s := New(r, cleaner, recreator, cmds, nil, nil, Config{ScanRate: time.Millisecond, KillTimeoutTicks: 1})

	cmds.Bump()
	s.Tick(context.Background(), 0)
	s.Tick(context.Background(), 1)

	require.Len(t, cleaner.calls, 1)
	require.Len(t, recreator.calls, 1)
	require.Equal(t, "FOO", recreator.calls[0].Name)
}

// Scenario 5 / P6: SYS_EXCEPTION fires exactly one event and transmutes to
// SYS_DELETE, never repeating the exception branch for the same entry.
func TestExceptionTransmutesToDeleteOnce(t *testing.T) {
	r := registry.New(4, 4, 8)
	idx := newRunningApp(t, r, registry.SysException)

	cleaner := &fakeCleaner{}
	cmds := &CommandCounter{}
	s := New(r, cleaner, &fakeRecreator{}, cmds, nil, nil, Config{ScanRate: time.Millisecond, KillTimeoutTicks: 1})

	cmds.Bump()
	s.Tick(context.Background(), 0) // WAITING armed
	s.Tick(context.Background(), 1) // grace expires -> processControl: exception branch, transmute

	require.Empty(t, cleaner.calls)
	r.Lock()
	req := r.Apps[idx].Control.Request
	r.Unlock()
	require.Equal(t, registry.SysDelete, req)

	s.Tick(context.Background(), 0) // still WAITING, grace already 0 -> SYS_DELETE branch this time
	require.Len(t, cleaner.calls, 1)
}

func TestRestartFailureDoesNotAttemptRecreate(t *testing.T) {
	r := registry.New(4, 4, 8)
	newRunningApp(t, r, registry.SysRestart)

	cleaner := &fakeCleaner{err: registry.ErrAppCleanup}
	recreator := &fakeRecreator{}
	cmds := &CommandCounter{}
	s := New(r, cleaner, recreator, cmds, nil, nil, Config{ScanRate: time.Millisecond, KillTimeoutTicks: 1})

	cmds.Bump()
	s.Tick(context.Background(), 0)
	s.Tick(context.Background(), 1)

	require.Len(t, cleaner.calls, 1)
	require.Empty(t, recreator.calls)
}

// slotFreeingCleaner stands in for internal/cleanup.Cleaner well enough to
// exercise the claim-lowest-free-slot interaction restart/reload relies on:
// it actually zeroes the registry record on cleanup, the way
// Cleaner.CleanupApp's FinishCleanup call does, instead of leaving the slot
// looking occupied the way fakeCleaner does.
type slotFreeingCleaner struct {
	reg   *registry.Registry
	calls []int
}

func (f *slotFreeingCleaner) CleanupApp(_ context.Context, appIndex int, _, _ events.ID) error {
	f.calls = append(f.calls, appIndex)
	f.reg.Lock()
	f.reg.Apps[appIndex] = registry.AppRecord{}
	f.reg.Unlock()
	return nil
}

// slotClaimingRecreator stands in for internal/loader.Loader's
// ClaimAppSlot-then-commit sequence well enough to prove which slot a
// restart actually lands in.
type slotClaimingRecreator struct {
	reg     *registry.Registry
	created []int
}

func (f *slotClaimingRecreator) CreateAppFromParams(_ context.Context, typ registry.AppType, sp registry.StartParams) error {
	idx, err := f.reg.ClaimAppSlot()
	if err != nil {
		return err
	}
	f.reg.PopulateApp(idx, typ, osal.ModuleHandle{}, sp)
	if err := f.reg.CommitApp(idx, osal.TaskID{}, idx); err != nil {
		return err
	}
	f.created = append(f.created, idx)
	return nil
}

// OPEN QUESTION DECISIONS #3: a restart that recreates its app into a
// lower-numbered slot than the one C6 is currently processing must not
// have that slot revisited within the same tick's walk.
func TestRestartIntoLowerSlotNotRevisitedSameTick(t *testing.T) {
	r := registry.New(4, 4, 8)

	// Hold slot 0 while the restarting app is created so it lands in slot 1,
	// then free slot 0, as if an earlier tick had already cleaned that app
	// up, leaving it the lowest free slot going in.
	zero, err := r.ClaimAppSlot()
	require.NoError(t, err)
	require.Equal(t, 0, zero)

	restartIdx := newRunningApp(t, r, registry.SysRestart)
	require.Equal(t, 1, restartIdx)
	r.RevertAppSlot(zero)

	cleaner := &slotFreeingCleaner{reg: r}
	recreator := &slotClaimingRecreator{reg: r}
	cmds := &CommandCounter{}
	s := New(r, cleaner, recreator, cmds, nil, nil, Config{ScanRate: time.Millisecond, KillTimeoutTicks: 1})

	cmds.Bump()
	s.Tick(context.Background(), 0) // arms WAITING on idx 1
	s.Tick(context.Background(), 1) // grace expires -> C6 restart: C7 then C4

	require.Len(t, cleaner.calls, 1)
	require.Equal(t, restartIdx, cleaner.calls[0])
	require.Len(t, recreator.created, 1)
	require.Equal(t, 0, recreator.created[0], "restart must reclaim the lower, now-free slot 0, not append past slot 1")

	r.Lock()
	require.Equal(t, registry.StateRunning, r.Apps[0].State)
	r.Unlock()

	// Arm a control request directly on the new slot-0 app, simulating an
	// operator command arriving right after creation. The next tick's walk
	// is the first to see it and only arms its grace timer, so C6 has still
	// run just once: for the original restart of slot 1.
	r.Lock()
	r.Apps[0].Control.Request = registry.AppExit
	r.Unlock()
	cmds.Bump()
	s.Tick(context.Background(), 0)
	require.Len(t, cleaner.calls, 1, "the tick after creation must only arm slot 0's grace timer, not run C6 for it")
}

func TestIdleTickDoesNotScan(t *testing.T) {
	r := registry.New(4, 4, 8)
	newRunningApp(t, r, registry.AppRun)

	cleaner := &fakeCleaner{}
	s := New(r, cleaner, &fakeRecreator{}, nil, nil, nil, Config{ScanRate: time.Hour, KillTimeoutTicks: 1})

	pending := s.Tick(context.Background(), 1)
	require.False(t, pending)
	require.Empty(t, cleaner.calls)
}
