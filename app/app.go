package app

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/app/handlers"
	"github.com/m3rciful/skybot/app/services"
	"github.com/m3rciful/skybot/app/storage"
	"github.com/m3rciful/skybot/core/bootstrap"
	"github.com/m3rciful/skybot/core/telegram"
	"github.com/m3rciful/skybot/core/telegram/helpers"
	"github.com/m3rciful/skybot/core/telegram/middleware"
	"github.com/m3rciful/skybot/core/telegram/sender"
	"github.com/m3rciful/skybot/core/telegram/state"
)

// broadcastDelay paces sequential broadcast sends under the Bot API
// flood limit of ~30 messages per second.
const broadcastDelay = 100 * time.Millisecond

// Run assembles the bot and polls until ctx is cancelled.
func Run(ctx context.Context, cfg *Config) error {
	res, err := bootstrap.Run(bootstrap.Options[*storage.Store]{
		Config: cfg.CoreConfig(),
		OpenStore: func() (*storage.Store, error) {
			return storage.Open(cfg.Storage.Path)
		},
	})
	if err != nil {
		return err
	}
	store := res.Store

	var weather *services.WeatherClient
	if cfg.WeatherEnabled() {
		weather = services.NewWeatherClient(services.WeatherOptions{
			APIKey:   cfg.Weather.APIKey,
			BaseURL:  cfg.Weather.BaseURL,
			CacheTTL: cfg.WeatherCacheTTL(),
			Timeout:  cfg.WeatherTimeout(),
		})
	}
	cats := services.NewCatFactClient(services.CatFactOptions{
		BaseURL:  cfg.CatFacts.BaseURL,
		CacheTTL: cfg.CatFactsCacheTTL(),
		Timeout:  cfg.CatFactsTimeout(),
	})

	fsm := state.NewManager()
	h := &handlers.Handlers{
		Store:   store,
		Weather: weather,
		Cats:    cats,
		FSM:     fsm,
		IsAdmin: cfg.Telegram.IsAdmin,
	}

	reg := telegram.NewRegistry()
	h.Register(reg)

	ban := middleware.BanMiddleware(middleware.BanOptions{
		Checker: store,
		OnBanned: func(c tele.Context) error {
			text := "You are banned from using this bot."
			if sender := c.Sender(); sender != nil {
				if rec, ok := store.BanInfo(sender.ID); ok && rec.Reason != "" {
					text = fmt.Sprintf("You are banned from using this bot.\nReason: %s", rec.Reason)
				}
			}
			return helpers.SendText(c, text)
		},
	})

	onLimited := func(c tele.Context) error {
		return helpers.SendText(c, "Too fast! Give me a second.")
	}

	return telegram.RunTelegram(ctx, telegram.RunOptions{
		Config:            cfg.CoreConfig(),
		Registry:          reg,
		FSM:               fsm,
		Middlewares:       telegram.DefaultMiddlewares(cfg.CoreConfig(), ban, onLimited),
		DispatcherOptions: sender.Options{},
		OnStart: func(ctx context.Context, bot *tele.Bot) error {
			sendTo := func(userID int64, text string) error {
				_, err := bot.Send(&tele.User{ID: userID}, text)
				return err
			}
			h.SetNotifier(sendTo)
			h.Broadcaster = services.NewBroadcaster(sendTo, broadcastDelay)
			return nil
		},
	})
}
