package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"alm/internal/cli"
	"alm/internal/config"
	"alm/internal/manager"
)

func loadConfig(configFile string) (config.Config, error) {
	return config.Load(viper.New(), configFile, ".", "$HOME")
}

func openStartupScript(cfg config.Config) (*os.File, error) {
	if f, err := os.Open(cfg.VolatileStartupPath); err == nil {
		return f, nil
	}
	return os.Open(cfg.NonvolatileStartupPath)
}

func newRunCommand(configFile *string) *cobra.Command {
	var pidFile string
	var logFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the lifecycle manager in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			section := cli.NewSectionWriter(cmd.OutOrStdout(), isTTY())

			cfg, err := loadConfig(*configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, closeLog, err := buildLogger(logFile)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer closeLog()

			m, err := manager.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("build manager: %w", err)
			}

			section.Section("bootstrap")
			script, err := openStartupScript(cfg)
			if err != nil {
				section.Warn("no startup script found at %s or %s", cfg.VolatileStartupPath, cfg.NonvolatileStartupPath)
			} else {
				defer script.Close()
				if err := m.Bootstrap(cmd.Context(), script); err != nil {
					return fmt.Errorf("bootstrap: %w", err)
				}
				section.Success("startup script processed")
			}

			if pidFile != "" {
				if err := cli.WritePIDFile(pidFile); err != nil {
					section.Warn("could not write pid file: %v", err)
				} else {
					defer os.Remove(pidFile)
				}
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			section.Section("scan loop")
			section.Info("running, scan rate %s, kill timeout %d ticks", cfg.AppScanRate, cfg.AppKillTimeout)
			if err := m.Run(ctx); err != nil {
				return fmt.Errorf("run: %w", err)
			}
			section.Success("stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&pidFile, "pid-file", "", "write the daemon's PID to this path")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write structured logs to this path instead of stderr")
	return cmd
}

func buildLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewJSONHandler(f, nil)), func() { f.Close() }, nil
}
