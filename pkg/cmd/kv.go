package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/mediavault/pkg/cache"
	"github.com/yeisme/mediavault/pkg/configs"
	kv "github.com/yeisme/mediavault/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Key-Value store related commands",
		Aliases: []string{"keyvalue"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered kv types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered kv types:")

			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	kvKeysCmd = &cobra.Command{
		Use:   "keys [tag]",
		Short: "list cached thumbnail keys, optionally for one tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := cache.KeyPrefix
			if len(args) == 1 {
				prefix += args[0] + "."
			}

			return withCache(cmd.Context(), func(c *cache.Cache) error {
				keys, err := c.Keys(cmd.Context(), prefix)
				if err != nil {
					return err
				}

				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}

				return nil
			})
		},
	}

	kvClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "drop every cached thumbnail",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), func(c *cache.Cache) error {
				return c.Clear(cmd.Context())
			})
		},
	}
)

// withCache 打开配置的缩略图缓存.
func withCache(ctx context.Context, fn func(c *cache.Cache) error) error {
	cfg := configs.GetConfig()
	if !cfg.KV.Enabled {
		return fmt.Errorf("thumbnail cache is disabled (kv.enabled=false)")
	}

	store, err := kv.New(ctx, &cfg.KV)
	if err != nil {
		return err
	}

	c := cache.New(store, cache.Options{TTL: cfg.KV.TTL, MaxBytes: cfg.KV.MaxBytes})
	defer c.Close()

	return fn(c)
}

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd, kvKeysCmd, kvClearCmd)
}
