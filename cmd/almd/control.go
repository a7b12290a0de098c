package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"alm/internal/cli"
	"alm/internal/manager"
	"alm/internal/registry"
)

// deadlineForOneScan bounds how long the one-shot control subcommand keeps
// the scan loop running: long enough for the grace timer to expire and C6
// to fire at least once, plus a fixed margin for goroutine scheduling.
func deadlineForOneScan(cmd *cobra.Command, m *manager.Manager) (context.Context, context.CancelFunc) {
	cfg := m.Config()
	window := cfg.AppScanRate*time.Duration(cfg.AppKillTimeout+2) + 200*time.Millisecond
	return context.WithTimeout(cmd.Context(), window)
}

var controlRequests = map[string]registry.ControlRequest{
	"exit":      registry.AppExit,
	"error":     registry.AppError,
	"delete":    registry.SysDelete,
	"restart":   registry.SysRestart,
	"reload":    registry.SysReload,
	"exception": registry.SysException,
}

func newControlCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "control <app-name> <exit|error|delete|restart|reload|exception>",
		Short: "Load the configured startup script, then issue a control request against an app",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			section := cli.NewSectionWriter(cmd.OutOrStdout(), isTTY())
			name, reqName := args[0], args[1]

			req, ok := controlRequests[reqName]
			if !ok {
				return fmt.Errorf("unknown control request %q", reqName)
			}

			cfg, err := loadConfig(*configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			m, err := manager.New(cfg, nil)
			if err != nil {
				return fmt.Errorf("build manager: %w", err)
			}
			script, err := openStartupScript(cfg)
			if err != nil {
				return fmt.Errorf("open startup script: %w", err)
			}
			defer script.Close()
			if err := m.Bootstrap(cmd.Context(), script); err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}

			if err := m.ControlApp(name, req); err != nil {
				return fmt.Errorf("control %s: %w", name, err)
			}
			section.Success("%s: %s requested", name, req)

			ctx, cancel := deadlineForOneScan(cmd, m)
			defer cancel()
			_ = m.Run(ctx)

			printAppTable(cmd, m)
			return nil
		},
	}
	return cmd
}
