package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/mediavault/pkg/app"
)

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "run a single reaper pass and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			stats, err := a.Service().Reap(cmd.Context())

			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d reaped=%d failed=%d duration=%s\n",
				stats.Scanned, stats.Reaped, stats.Failed, stats.Duration)

			return err
		})
	},
}

// registerReapCommands 注册回收命令.
func registerReapCommands() {
	rootCmd.AddCommand(reapCmd)
}
