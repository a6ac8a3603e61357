package cmd

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/mediavault/pkg/configs"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
	}

	// 打印当前使用的配置文件路径.
	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := configs.GetViper()
			if v == nil {
				return fmt.Errorf("config not initialized")
			}

			if used := v.ConfigFileUsed(); used != "" {
				fmt.Fprintln(cmd.OutOrStdout(), used)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (defaults and "+configs.EnvPrefix+"_* env only)")
			}

			return nil
		},
	}

	// 打印合并默认值、配置文件与环境变量后的生效配置.
	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				if v := configs.GetViper(); v != nil {
					v.DebugTo(cmd.ErrOrStderr())
				}
			}

			return printJSON(cmd.OutOrStdout(), configs.GetConfig())
		},
	}

	// 打印内置默认值，便于生成初始配置文件.
	defaultsCmd = &cobra.Command{
		Use:   "defaults",
		Short: "print the built-in default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), configs.NewViper().AllSettings())
		},
	}
)

func printJSON(w io.Writer, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	_, err = fmt.Fprintln(w, string(b))

	return err
}

// registerConfigsCommands 注册 CLI 子命令.
func registerConfigsCommands() {
	debugCmd.Flags().BoolVar(&debug, "viper", false, "also dump viper internals to stderr")

	configCmd.AddCommand(pathCmd, debugCmd, defaultsCmd)

	rootCmd.AddCommand(configCmd)
}
