package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"alm/internal/cli"
	"alm/internal/manager"
)

func newLoadCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <script-path>...",
		Short: "Parse one or more startup scripts and report what would be registered",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section := cli.NewSectionWriter(cmd.OutOrStdout(), isTTY())

			cfg, err := loadConfig(*configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			m, err := manager.New(cfg, nil)
			if err != nil {
				return fmt.Errorf("build manager: %w", err)
			}

			section.Section("load")
			err = m.BootstrapFiles(cmd.Context(), func(path string) (io.ReadCloser, error) {
				return os.Open(path)
			}, args...)
			if err != nil {
				return fmt.Errorf("bootstrap files: %w", err)
			}
			section.Success("%d script(s) processed", len(args))

			printAppTable(cmd, m)
			return nil
		},
	}
	return cmd
}
