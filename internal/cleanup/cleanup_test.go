package cleanup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"alm/internal/events"
	"alm/internal/loader"
	"alm/internal/osal"
	"alm/internal/registry"
	"alm/internal/startup"
)

func createRunningApp(t *testing.T, sim *osal.Simulator, reg *registry.Registry) int {
	t.Helper()
	l := loader.New(reg, sim, nil, nil)
	started := make(chan struct{})
	sim.RegisterModule("/cf/foo.obj", map[string]osal.EntryFunc{
		"FOO_AppMain": func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return nil
		},
	})
	require.NoError(t, l.CreateApp(context.Background(), startup.Entry{
		Name: "FOO_APP", FilePath: "/cf/foo.obj", EntrySymbol: "FOO_AppMain",
		StackSize: 4096, Priority: 50,
	}))
	<-started
	return 0
}

func TestCleanupAppTearsDownAndReleasesSlot(t *testing.T) {
	sim := osal.NewSimulator(nil)
	reg := registry.New(4, 4, 8)
	idx := createRunningApp(t, sim, reg)

	c := New(reg, sim, nil, nil, 0, nil, nil, nil, nil)
	require.NoError(t, c.CleanupApp(context.Background(), idx, events.AppExit, events.AppExitError))

	require.Equal(t, 0, reg.ExternalApps)
	require.Equal(t, 0, reg.RegisteredTasks)
	require.Equal(t, registry.StateUndefined, reg.Apps[idx].State)
}

func TestSweepConvergesOverMultiplePasses(t *testing.T) {
	sim := osal.NewSimulator(nil)
	reg := registry.New(4, 4, 8)
	idx := createRunningApp(t, sim, reg)

	reg.Lock()
	mainTaskID := reg.Apps[idx].Task.MainTaskID
	reg.Unlock()

	sim.CreateObject(mainTaskID, osal.KindQueue)
	sim.CreateObject(mainTaskID, osal.KindMutex)
	sim.CreateObject(mainTaskID, osal.KindTimer)

	c := New(reg, sim, nil, nil, 0, nil, nil, nil, nil)
	err := c.CleanupApp(context.Background(), idx, events.AppExit, events.AppExitError)
	require.NoError(t, err)

	var remaining int
	sim.ForEachObject(mainTaskID, func(osal.ObjectID) { remaining++ })
	require.Equal(t, 0, remaining)
}

// The events subsystem hook's failure is the one hook whose status
// CleanupApp propagates: CFE_ES_CleanUpApp checks only CFE_EVS_CleanUpApp's
// return code among the four subsystem calls.
func TestCleanupAppDowngradesOnEventsHookFailure(t *testing.T) {
	sim := osal.NewSimulator(nil)
	reg := registry.New(4, 4, 8)
	idx := createRunningApp(t, sim, reg)

	tables := NewTableRegistry()
	bus := NewSoftwareBus()
	clock := NewTimeClients()
	evs := NewEventFilters()
	evs.FailNextCleanup(idx)

	c := New(reg, sim, nil, nil, 0, tables, bus, clock, evs)
	err := c.CleanupApp(context.Background(), idx, events.AppExit, events.AppExitError)

	require.ErrorIs(t, err, registry.ErrAppCleanup)
	require.Equal(t, 0, reg.ExternalApps)
	require.Equal(t, registry.StateUndefined, reg.Apps[idx].State)
}

// Table, software bus, and time hook failures are logged but never
// propagated, matching CFE_ES_CleanUpApp's disregard for
// CFE_TBL_CleanUpApp/CFE_SB_CleanUpApp/CFE_TIME_CleanUpApp's return values.
func TestCleanupAppIgnoresBestEffortHookFailures(t *testing.T) {
	sim := osal.NewSimulator(nil)
	reg := registry.New(4, 4, 8)
	idx := createRunningApp(t, sim, reg)

	c := New(reg, sim, nil, nil, 0, failingSubsystem{}, failingSubsystem{}, failingSubsystem{}, nil)
	err := c.CleanupApp(context.Background(), idx, events.AppExit, events.AppExitError)

	require.NoError(t, err)
	require.Equal(t, registry.StateUndefined, reg.Apps[idx].State)
}

type failingSubsystem struct{}

func (failingSubsystem) CleanUpApp(int) error {
	return registry.ErrAppCleanup
}
