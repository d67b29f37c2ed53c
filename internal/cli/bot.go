package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"notepad/internal/bot"
	"notepad/internal/service"
)

// NewBotCommand creates the command running the Telegram bot.
func NewBotCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot and the digest schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd, rootOpts)
		},
	}
}

func runBot(cmd *cobra.Command, opts *RootOptions) error {
	ctx := cmd.Context()
	a, err := openApp(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cfg.RequireTelegram(); err != nil {
		return err
	}

	telegramBot, err := bot.New(a.cfg.TelegramToken, a.cfg.TelegramChatID, bot.Services{
		Notes:      a.notes,
		Categories: a.cats,
		Picker:     a.picker,
		Digest:     a.digest,
	}, a.log)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(time.Local, a.log, a.log)
	entries, err := scheduler.ScheduleDigest(a.cfg.DigestInterval, a.cfg.DigestTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.SendDigests(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error(jobCtx, "send digests", "error", err)
		}
	})
	if err != nil {
		return err
	}
	if entries > 0 {
		scheduler.Start()
		defer scheduler.Stop()
	}

	a.log.Info(ctx, "notepad bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info(ctx, "shutdown complete")
	return nil
}
