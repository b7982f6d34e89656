package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/skybot/core/config"
	"github.com/m3rciful/skybot/core/logger"
	"github.com/m3rciful/skybot/core/telegram/helpers"
	"github.com/m3rciful/skybot/core/telegram/router"
	"github.com/m3rciful/skybot/core/telegram/sender"
	"github.com/m3rciful/skybot/core/telegram/state"
)

// RunOptions collects everything needed to start the bot.
type RunOptions struct {
	Config            *coreconfig.Config
	Registry          *Registry
	FSM               state.Manager
	Middlewares       []tele.MiddlewareFunc
	DispatcherOptions sender.Options

	// OnStart runs after the bot is constructed, before polling begins.
	OnStart func(ctx context.Context, bot *tele.Bot) error
	// OnStop runs during shutdown, after polling has stopped.
	OnStop func(ctx context.Context)
}

// RunTelegram builds the bot, wires routes and middleware, then polls
// until ctx is cancelled.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config
	if cfg == nil {
		return fmt.Errorf("telegram: nil config")
	}
	if opts.Registry == nil {
		return fmt.Errorf("telegram: nil registry")
	}

	poller, err := BuildPoller(cfg)
	if err != nil {
		return fmt.Errorf("build poller: %w", err)
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(),
		OnError: onBotError,
	})
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	// Long polling conflicts with a leftover webhook registration.
	if cfg.Telegram.RunMode != "webhook" {
		if removeErr := bot.RemoveWebhook(); removeErr != nil {
			logger.Warn(ctx, "tg.wire", "webhook_remove_failed",
				slog.String("err", removeErr.Error()))
		}
	}

	dispatcher := sender.New(opts.DispatcherOptions)
	helpers.SetDispatcher(dispatcher)
	defer func() {
		helpers.SetDispatcher(nil)
		dispatcher.Close()
	}()

	for _, mw := range opts.Middlewares {
		bot.Use(mw)
	}

	router.BindCommands(bot, opts.Registry)
	router.BindText(bot, opts.FSM, opts.Registry)
	router.BindCallbacks(bot, opts.Registry)

	if err := InitBotCommands(bot, opts.Registry); err != nil {
		logger.Warn(ctx, "tg.wire", "set_commands_failed",
			slog.String("err", err.Error()))
	}

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, bot); err != nil {
			return fmt.Errorf("on start: %w", err)
		}
	}

	logger.Info(ctx, "tg", "bot_started",
		slog.String("mode", cfg.Telegram.RunMode),
		slog.Int("count", len(opts.Registry.ListCommands())),
	)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		bot.Start()
	}()

	<-ctx.Done()
	bot.Stop()

	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		logger.Warn(logger.Background(), "tg", "poller_stop_timeout")
	}

	if opts.OnStop != nil {
		opts.OnStop(logger.Background())
	}
	logger.Info(logger.Background(), "tg", "bot_stopped")
	return nil
}

func onBotError(err error, c tele.Context) {
	if err == nil {
		return
	}
	ctx := logger.Background()
	if c != nil {
		ctx = helpers.ContextFrom(c)
	}
	logger.Error(ctx, "tg", "update_failed", slog.String("err", err.Error()))
}
