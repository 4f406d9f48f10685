package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/watcher"
)

var (
	watchScan   bool
	watchInbox  string
	watchOutbox string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Anonymize transcripts as they land in the inbox directory",
	Long: `Watches the configured inbox (watch.inbox) for transcripts matching
watch.patterns and writes each prompt to <outbox>/<name>.prompt.txt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		wc := a.Config.Watch
		if watchInbox != "" {
			wc.Inbox = watchInbox
		}
		if watchOutbox != "" {
			wc.Outbox = watchOutbox
		}
		if err := os.MkdirAll(wc.Inbox, 0o755); err != nil {
			return err
		}

		log := a.Logger.WithComponent("watcher").Logger
		w, err := watcher.New(wc, watcher.PromptHandler(a.Session, wc, log), log)
		if err != nil {
			return err
		}
		defer w.Stop()

		if watchScan {
			n, err := w.Scan(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("Existing transcripts processed", zap.Int("count", n))
		}
		return w.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchScan, "scan", false, "Process transcripts already in the inbox first")
	watchCmd.Flags().StringVar(&watchInbox, "inbox", "", "Override watch.inbox")
	watchCmd.Flags().StringVar(&watchOutbox, "outbox", "", "Override watch.outbox")
}
