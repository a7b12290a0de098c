package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds almd's command tree. Each subcommand other than
// logs builds its own Manager and bootstraps it before acting (load from
// the script paths it is given, the others from the configured startup
// script), since this module keeps no admin API
// beyond the Prometheus endpoint for a separate process to attach to:
// run starts the long-lived scan loop, status and load report what a
// script would register, and control issues one control request and lets
// the scan loop process it before printing the resulting table.
func NewRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "almd",
		Short: "Application Lifecycle Manager daemon",
		Long: `almd supervises external application modules: it parses a startup
script, loads libraries and spawns apps against an OSAL, and runs a
background scan loop that drives restarts, reloads, and cleanup from
each app's control-request field.`,
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "config file name (searched in . and $HOME, without extension)")

	root.AddCommand(newRunCommand(&configFile))
	root.AddCommand(newStatusCommand(&configFile))
	root.AddCommand(newLoadCommand(&configFile))
	root.AddCommand(newControlCommand(&configFile))
	root.AddCommand(newLogsCommand())

	return root
}
