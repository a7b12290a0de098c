package events

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSinkLogsAndFiresHook(t *testing.T) {
	var buf bytes.Buffer
	sink := New(slog.New(slog.NewTextHandler(&buf, nil)))

	var fired []ID
	sink.SetHook(func(id ID) { fired = append(fired, id) })

	sink.Info(AppCreated, "app created", "name", "FOO")
	sink.Warn(AppCleanupError, "cleanup hook failed")
	sink.Error(AppCreateError, "create failed")

	require.Equal(t, []ID{AppCreated, AppCleanupError, AppCreateError}, fired)
	require.Contains(t, buf.String(), "APP_CREATED")
	require.Contains(t, buf.String(), "app created")
}

func TestSinkWithoutHookDoesNotPanic(t *testing.T) {
	sink := New(nil)
	sink.Info(ScanTick, "tick")
}
