package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"alm/internal/osal"
	"alm/internal/registry"
	"alm/internal/startup"
)

func TestLoadLibrarySuccess(t *testing.T) {
	sim := osal.NewSimulator(nil)
	reg := registry.New(4, 4, 8)
	l := New(reg, sim, nil, nil)

	initCalled := false
	sim.RegisterModule("/cf/bar.obj", map[string]osal.EntryFunc{
		"BAR_LibInit": func(ctx context.Context) error {
			initCalled = true
			return nil
		},
	})

	err := l.LoadLibrary(context.Background(), startup.Entry{
		Type: "CFE_LIB", Name: "BAR_LIB", FilePath: "/cf/bar.obj", EntrySymbol: "BAR_LibInit",
	})
	require.NoError(t, err)
	require.True(t, initCalled)
	require.Equal(t, 1, reg.RegisteredLibs)
}

func TestLoadLibraryAlreadyLoadedIsIdempotent(t *testing.T) {
	sim := osal.NewSimulator(nil)
	reg := registry.New(4, 4, 8)
	l := New(reg, sim, nil, nil)

	sim.RegisterModule("/cf/bar.obj", map[string]osal.EntryFunc{
		"BAR_LibInit": func(ctx context.Context) error { return nil },
	})
	e := startup.Entry{Name: "BAR_LIB", FilePath: "/cf/bar.obj", EntrySymbol: "BAR_LibInit"}
	require.NoError(t, l.LoadLibrary(context.Background(), e))
	require.NoError(t, l.LoadLibrary(context.Background(), e))
	require.Equal(t, 1, reg.RegisteredLibs)
}

func TestLoadLibraryInitFailureReleasesSlot(t *testing.T) {
	sim := osal.NewSimulator(nil)
	reg := registry.New(4, 4, 8)
	l := New(reg, sim, nil, nil)

	sim.RegisterModule("/cf/bad.obj", map[string]osal.EntryFunc{
		"Init": func(ctx context.Context) error { return errors.New("boom") },
	})
	e := startup.Entry{Name: "BAD_LIB", FilePath: "/cf/bad.obj", EntrySymbol: "Init"}
	err := l.LoadLibrary(context.Background(), e)
	require.ErrorIs(t, err, registry.ErrLoadLib)
	require.Equal(t, 0, reg.RegisteredLibs)

	idx, already, err := reg.ClaimLibrarySlot("BAD_LIB")
	require.NoError(t, err)
	require.False(t, already)
	require.Equal(t, 0, idx)
}

func TestCreateAppSuccess(t *testing.T) {
	sim := osal.NewSimulator(nil)
	reg := registry.New(4, 4, 8)
	l := New(reg, sim, nil, nil)

	started := make(chan struct{})
	sim.RegisterModule("/cf/foo.obj", map[string]osal.EntryFunc{
		"FOO_AppMain": func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return nil
		},
	})

	err := l.CreateApp(context.Background(), startup.Entry{
		Name: "FOO_APP", FilePath: "/cf/foo.obj", EntrySymbol: "FOO_AppMain",
		StackSize: 8192, Priority: 100,
	})
	require.NoError(t, err)
	<-started

	require.Equal(t, 1, reg.ExternalApps)
	require.Equal(t, 1, reg.RegisteredTasks)
}

func TestCreateAppMissingModuleRevertsSlot(t *testing.T) {
	sim := osal.NewSimulator(nil)
	reg := registry.New(4, 4, 8)
	l := New(reg, sim, nil, nil)

	err := l.CreateApp(context.Background(), startup.Entry{
		Name: "NOPE_APP", FilePath: "/cf/missing.obj", EntrySymbol: "Main",
	})
	require.ErrorIs(t, err, registry.ErrAppCreate)
	require.Equal(t, 0, reg.ExternalApps)

	idx, err := reg.ClaimAppSlot()
	require.NoError(t, err)
	require.Equal(t, 0, idx)
}
