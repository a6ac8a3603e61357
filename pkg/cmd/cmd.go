// Package cmd contains the command line applications for the project.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/mediavault/pkg/app"
	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/log"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           "mediavault",
		Short:         "Content-addressed media storage service",
		Version:       configs.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}

			log.Init()

			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP server and the reaper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig()

			a, err := app.NewApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			return a.Run(cmd.Context())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./", "config file or directory")

	rootCmd.AddCommand(serveCmd)

	registerConfigsCommands()
	registerTagsCommands()
	registerReapCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
}

// withApp 构建完整应用后执行 fn，结束时释放资源.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg := configs.GetConfig()

	a, err := app.NewApp(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			log.Logger().Warn().Err(err).Msg("close app")
		}
	}()

	return fn(a)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return fmt.Errorf("mediavault: %w", err)
	}

	return nil
}
