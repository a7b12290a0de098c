// Package config loads the Application Lifecycle Manager's tunables,
// layering defaults, an optional YAML file, and environment variables, the
// way devops.DevConfig layers code defaults, a
// config file, and the environment — but driven through spf13/viper and
// spf13/cobra rather than a hand-rolled reflection walk, since this repo's
// CLI is already cobra-based.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable named in spec.md §3/§5/§6: registry
// capacities, scan timing, and the two startup-script paths.
type Config struct {
	MaxApplications int           `mapstructure:"max_applications"`
	MaxLibraries    int           `mapstructure:"max_libraries"`
	MaxTasks        int           `mapstructure:"max_tasks"`

	AppScanRate        time.Duration `mapstructure:"app_scan_rate"`
	AppKillTimeout     int64         `mapstructure:"app_kill_timeout_ticks"`
	CleanupHookTimeout time.Duration `mapstructure:"cleanup_hook_timeout"`

	VolatileStartupPath    string `mapstructure:"volatile_startup_path"`
	NonvolatileStartupPath string `mapstructure:"nonvolatile_startup_path"`

	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Defaults mirrors devops.applyDefaults: every field gets a sane value
// before the file or environment is consulted.
func Defaults() Config {
	return Config{
		MaxApplications:        32,
		MaxLibraries:           32,
		MaxTasks:               64,
		AppScanRate:            200 * time.Millisecond,
		AppKillTimeout:         5,
		CleanupHookTimeout:     2 * time.Second,
		VolatileStartupPath:    "/ram/apps.startup",
		NonvolatileStartupPath: "/cf/apps.startup",
		MetricsAddr:            ":9110",
	}
}

// Load layers Defaults() under an optional config file (by name, searched
// on the given paths) and ALM_-prefixed environment variables, matching
// devops.LoadDevConfig's priority order: code defaults -> config file ->
// environment.
func Load(v *viper.Viper, configName string, searchPaths ...string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	cfg := Defaults()

	v.SetEnvPrefix("ALM")
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if configName != "" {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return Config{}, fmt.Errorf("config: read config file: %w", err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("max_applications", cfg.MaxApplications)
	v.SetDefault("max_libraries", cfg.MaxLibraries)
	v.SetDefault("max_tasks", cfg.MaxTasks)
	v.SetDefault("app_scan_rate", cfg.AppScanRate)
	v.SetDefault("app_kill_timeout_ticks", cfg.AppKillTimeout)
	v.SetDefault("cleanup_hook_timeout", cfg.CleanupHookTimeout)
	v.SetDefault("volatile_startup_path", cfg.VolatileStartupPath)
	v.SetDefault("nonvolatile_startup_path", cfg.NonvolatileStartupPath)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)
}
