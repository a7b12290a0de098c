package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"alm/internal/cli"
)

func newLogsCommand() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs <path>",
		Short: "Tail a log file written by 'almd run --log-file'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.TailLog(cmd.Context(), args[0], follow, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("tail log: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep streaming new lines")
	return cmd
}
