package metrics

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"alm/internal/osal"
	"alm/internal/registry"
)

func TestMetricsReflectRegistryOccupancy(t *testing.T) {
	reg := registry.New(4, 4, 8)
	idx, err := reg.ClaimAppSlot()
	require.NoError(t, err)
	reg.PopulateApp(idx, registry.TypeExternal, osal.ModuleHandle{}, registry.StartParams{Name: "FOO"})
	require.NoError(t, reg.CommitApp(idx, osal.TaskID{}, 0))

	m, err := New(reg)
	require.NoError(t, err)
	m.RecordAppCreate(context.Background())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "alm_registered_apps")
	require.Contains(t, rec.Body.String(), "alm_app_creates_total")
}
