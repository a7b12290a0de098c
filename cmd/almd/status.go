package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"alm/internal/manager"
)

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func newStatusCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Load the configured startup script and print registered apps",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			printAppTable(cmd, m)
			return nil
		},
	}
	return cmd
}

func printAppTable(cmd *cobra.Command, m *manager.Manager) {
	infos := m.AllAppInfo()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tSTATE\tPRIORITY\tSTACK\tCHILD TASKS")

	stateColor := func(s string) string { return s }
	if isTTY() {
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		stateColor = func(s string) string {
			switch s {
			case "RUNNING":
				return green(s)
			case "WAITING", "EARLY_INIT", "LATE_INIT":
				return yellow(s)
			default:
				return red(s)
			}
		}
	}

	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			info.Name, info.Type, stateColor(info.State.String()),
			info.Priority, info.StackSize, info.ChildTaskCount)
	}
	w.Flush()
}
