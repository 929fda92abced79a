package commands

import (
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"reviewhub/internal/cache"
	"reviewhub/internal/config"
	"reviewhub/internal/notifications"

	"github.com/spf13/cobra"
)

// eventsCmd tails the review event stream
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print review events as they are published",
	Long: `Subscribe to the review event channel and print one line per event
until interrupted. Requires REDIS_URL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cache.InitRedis(cfg.RedisURL)
		rdb := cache.GetClient()
		if rdb == nil {
			return fmt.Errorf("redis is not reachable at %q", cfg.RedisURL)
		}
		defer func() { _ = rdb.Close() }()

		ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var mu sync.Mutex
		out := cmd.OutOrStdout()
		err = notifications.NewNotifier(rdb).StartReviewSubscriber(ctx, func(event notifications.ReviewEvent) {
			mu.Lock()
			defer mu.Unlock()
			printEvent(out, event)
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s\n", notifications.ReviewsChannel)
		<-ctx.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}

func printEvent(out io.Writer, event notifications.ReviewEvent) {
	if jsonOutput {
		_ = writeJSON(out, event)
		return
	}
	line := fmt.Sprintf("%s %-15s review=%d author=%s actor=%s",
		event.OccurredAt.Format("2006-01-02T15:04:05Z07:00"), event.Type, event.ReviewID, event.AuthorID, event.ActorID)
	if event.CategoryID != nil {
		line += fmt.Sprintf(" category=%d", *event.CategoryID)
	}
	if event.IsHelpful != nil {
		line += fmt.Sprintf(" helpful=%t", *event.IsHelpful)
	}
	fmt.Fprintln(out, line)
}
