package cmd

import (
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/mediavault/pkg/configs"
	mq "github.com/yeisme/mediavault/pkg/internal/storage/mq"
	"github.com/yeisme/mediavault/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Message queue related commands",
		Aliases: []string{"messagequeue"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered mq types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered mq types:")

			for _, t := range mq.GetRegisteredMQTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	// gochannel 只在进程内可见，tail 仅对 NATS 等外部队列有意义.
	mqTailCmd = &cobra.Command{
		Use:   "tail [topic...]",
		Short: "print attachment lifecycle events as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			topics := args
			if len(topics) == 0 {
				topics = queue.AttachmentTopics
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := configs.GetConfig()

			client, err := mq.New(ctx, &cfg.MQ, false)
			if err != nil {
				return err
			}

			defer client.Close()

			var mu sync.Mutex

			g, gctx := errgroup.WithContext(ctx)

			for _, topic := range topics {
				msgs, err := client.Subscribe(gctx, topic)
				if err != nil {
					return fmt.Errorf("subscribe %s: %w", topic, err)
				}

				g.Go(func() error {
					for m := range msgs {
						mu.Lock()
						fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", topic, m.Payload)
						mu.Unlock()
						m.Ack()
					}

					return nil
				})
			}

			return g.Wait()
		},
	}
)

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd, mqTailCmd)
}
