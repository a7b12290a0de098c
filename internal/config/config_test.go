package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, 32, cfg.MaxApplications)
	require.Equal(t, int64(5), cfg.AppKillTimeout)
}

func TestLoadEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("ALM_MAX_APPLICATIONS", "8")
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, 8, cfg.MaxApplications)
}
