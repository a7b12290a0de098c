package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"alm/internal/osal"
)

func TestClaimAppSlotExhaustion(t *testing.T) {
	r := New(2, 4, 8)

	_, err := r.ClaimAppSlot()
	require.NoError(t, err)
	_, err = r.ClaimAppSlot()
	require.NoError(t, err)

	_, err = r.ClaimAppSlot()
	require.ErrorIs(t, err, ErrNoFreeSlot)
}

func TestAppLifecycleUpdatesCounters(t *testing.T) {
	r := New(4, 4, 8)

	idx, err := r.ClaimAppSlot()
	require.NoError(t, err)

	r.PopulateApp(idx, TypeExternal, osal.ModuleHandle{}, StartParams{Name: "FOO"})
	require.NoError(t, r.CommitApp(idx, osal.TaskID{}, 0))

	require.Equal(t, 1, r.ExternalApps)
	require.Equal(t, 1, r.RegisteredTasks)

	r.Lock()
	require.NoError(t, r.CheckInvariants())
	r.FinishCleanup(idx)
	r.ReleaseTaskSlot(0)
	require.Equal(t, 0, r.ExternalApps)
	require.Equal(t, 0, r.RegisteredTasks)
	require.Equal(t, StateUndefined, r.Apps[idx].State)
	require.NoError(t, r.CheckInvariants())
	r.Unlock()
}

// P1: at any quiescent point, the count of non-UNDEFINED EXTERNAL slots
// equals ExternalApps.
func TestP1SlotConservation(t *testing.T) {
	r := New(8, 4, 16)

	var claimed []int
	for i := 0; i < 5; i++ {
		idx, err := r.ClaimAppSlot()
		require.NoError(t, err)
		r.PopulateApp(idx, TypeExternal, osal.ModuleHandle{}, StartParams{Name: "A"})
		require.NoError(t, r.CommitApp(idx, osal.TaskID{}, i))
		claimed = append(claimed, idx)
	}

	r.Lock()
	require.NoError(t, r.CheckInvariants())
	r.Unlock()

	for _, idx := range claimed[:2] {
		r.Lock()
		r.FinishCleanup(idx)
		r.Unlock()
	}

	r.Lock()
	count := 0
	for _, app := range r.Apps {
		if app.Type == TypeExternal && app.State != StateUndefined {
			count++
		}
	}
	require.Equal(t, count, r.ExternalApps)
	require.Equal(t, 3, r.ExternalApps)
	r.Unlock()
}

// P2: loading a duplicate library name returns AlreadyLoaded and does not
// modify the registry.
func TestP2LibraryUniqueness(t *testing.T) {
	r := New(4, 4, 8)

	idx, already, err := r.ClaimLibrarySlot("LIB_A")
	require.NoError(t, err)
	require.False(t, already)
	r.CommitLibrary(idx, osal.ModuleHandle{})

	idx2, already2, err := r.ClaimLibrarySlot("LIB_A")
	require.NoError(t, err)
	require.True(t, already2)
	require.Equal(t, idx, idx2)
	require.Equal(t, 1, r.RegisteredLibs)
}

func TestClaimLibrarySlotRejectsOversizeName(t *testing.T) {
	r := New(4, 4, 8)
	long := make([]byte, MaxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, _, err := r.ClaimLibrarySlot(string(long))
	require.ErrorIs(t, err, ErrBadArgument)
}

func TestInfoUnknownApp(t *testing.T) {
	r := New(2, 2, 2)
	_, err := r.Info(0, nil)
	require.ErrorIs(t, err, ErrUnknownApp)
}

func TestInfoSnapshot(t *testing.T) {
	r := New(2, 2, 2)
	idx, err := r.ClaimAppSlot()
	require.NoError(t, err)
	r.PopulateApp(idx, TypeExternal, osal.ModuleHandle{}, StartParams{
		Name: "FOO", FilePath: "/cf/foo.obj", StackSize: 8192, Priority: 100,
	})
	require.NoError(t, r.CommitApp(idx, osal.TaskID{}, 0))

	info, err := r.Info(idx, func(osal.ModuleHandle) (osal.ModuleInfo, error) {
		return osal.ModuleInfo{Valid: true}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "FOO", info.Name)
	require.Equal(t, StateRunning, info.State)
	require.True(t, info.AddressesAreValid)
	require.Equal(t, 0, info.ChildTaskCount)
}
