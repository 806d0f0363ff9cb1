package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <job>",
		Short: "Run one scheduled job now and exit",
		Long: "Run one scheduled job now and exit. Jobs: " +
			"rollover, expand-patterns, migrate-overdue, due-reminders, daily-report.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if _, err := a.telegram(); err != nil {
				return err
			}

			name := strings.TrimSpace(args[0])
			if err := a.scheduler.Trigger(cmd.Context(), name); err != nil {
				return fmt.Errorf("%s: %w (known jobs: %s)", name, err, strings.Join(a.scheduler.Jobs(), ", "))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s finished\n", name)
			return nil
		},
	}
}
