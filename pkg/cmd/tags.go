package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/tags"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "print the effective tag table",
	RunE: func(cmd *cobra.Command, args []string) error {
		table := tags.New(configs.GetConfig().Tags)

		return printJSON(cmd.OutOrStdout(), table.Snapshot())
	},
}

// registerTagsCommands 注册标签相关命令.
func registerTagsCommands() {
	rootCmd.AddCommand(tagsCmd)
}
