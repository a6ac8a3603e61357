package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yeisme/mediavault/pkg/app"
	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/storage/db"
)

var (
	dbFilesLimit int
	dbRmHard     bool

	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbListCmd = &cobra.Command{
		Use:   "ls",
		Short: "list all registered database types",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")

			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), " - "+string(dbType))
			}
		},
	}

	dbStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "print record counts per tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFiles(cmd.Context(), func(files *db.Files) error {
				stats, err := files.Stats(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TAG\tFILES\tBYTES\tDELETED")

				for _, s := range stats {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", s.Tag, s.Count, s.Bytes, s.Deleted)
				}

				return w.Flush()
			})
		},
	}

	dbFilesCmd = &cobra.Command{
		Use:   "files [tag]",
		Short: "list the most recent records, optionally for one tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := ""
			if len(args) == 1 {
				tag = args[0]
			}

			return withFiles(cmd.Context(), func(files *db.Files) error {
				list, err := files.List(cmd.Context(), tag, dbFilesLimit)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TAG\tID\tTYPE\tSIZE\tDELETED\tFILENAME")

				for _, f := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n",
						f.Tag, f.ID, f.MetadataType, f.Size, f.Deleted != nil && *f.Deleted, f.Filename)
				}

				return w.Flush()
			})
		},
	}

	dbRmCmd = &cobra.Command{
		Use:   "rm <tag> <id>",
		Short: "mark a record deleted, or remove it with its bytes when --hard is set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if dbRmHard {
					return a.Service().Delete(cmd.Context(), args[0], args[1])
				}

				return a.Service().MarkDeleted(cmd.Context(), args[0], args[1])
			})
		},
	}
)

// withFiles 仅打开元数据库，不初始化其他存储资源.
func withFiles(ctx context.Context, fn func(files *db.Files) error) error {
	cfg := configs.GetConfig()

	client, err := db.New(ctx, &cfg.DB, false)
	if err != nil {
		return err
	}

	defer client.Close()

	return fn(db.NewFiles(client))
}

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)

	dbFilesCmd.Flags().IntVarP(&dbFilesLimit, "limit", "n", 50, "maximum number of records")
	dbRmCmd.Flags().BoolVar(&dbRmHard, "hard", false, "delete bytes and metadata immediately")

	dbCmd.AddCommand(dbListCmd, dbStatsCmd, dbFilesCmd, dbRmCmd)
}
