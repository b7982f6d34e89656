// Package handlers implements every user-facing command, dialogue step
// and inline callback of the bot.
package handlers

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/app/services"
	"github.com/m3rciful/skybot/app/storage"
	"github.com/m3rciful/skybot/core/telegram"
	"github.com/m3rciful/skybot/core/telegram/commands"
	"github.com/m3rciful/skybot/core/telegram/helpers"
	"github.com/m3rciful/skybot/core/telegram/middleware"
	"github.com/m3rciful/skybot/core/telegram/state"
)

// Notifier delivers a message to a user outside a handler context
// (ban notices, broadcast delivery). Installed once the bot exists.
type Notifier func(userID int64, text string) error

// Handlers bundles the dependencies every handler needs.
type Handlers struct {
	Store   *storage.Store
	Weather *services.WeatherClient
	Cats    *services.CatFactClient
	FSM     state.Manager

	IsAdmin func(userID int64) bool

	Broadcaster *services.Broadcaster

	notify Notifier
}

// SetNotifier installs the out-of-band sender. Safe to leave unset in
// tests; notifications are then dropped.
func (h *Handlers) SetNotifier(n Notifier) {
	h.notify = n
}

func (h *Handlers) notifyUser(userID int64, text string) {
	if h.notify == nil {
		return
	}
	_ = h.notify(userID, text)
}

// Register wires all commands, callbacks, dialogue states and the text
// fallback into the registry and FSM.
func (h *Handlers) Register(reg *telegram.Registry) {
	adminGuard := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		IsAdmin: h.IsAdmin,
		Denied: func(c tele.Context) error {
			return helpers.SendText(c, "This command is for administrators only.")
		},
	})

	reg.RegisterCommand(commands.Command{
		Name:        "start",
		Description: "Start the bot",
		Handler:     h.Start,
	})
	reg.RegisterCommand(commands.Command{
		Name:        "help",
		Description: "How to use the bot",
		Handler:     h.Help,
	})
	reg.RegisterCommand(commands.Command{
		Name:        "weather",
		Description: "Current weather for a city",
		Handler:     h.WeatherCommand,
	})
	reg.RegisterCommand(commands.Command{
		Name:        "catfact",
		Description: "A random cat fact",
		Handler:     h.CatFact,
	})
	reg.RegisterCommand(commands.Command{
		Name:        "favorites",
		Description: "Your saved cities",
		Handler:     h.Favorites,
	})
	reg.RegisterCommand(commands.Command{
		Name:        "stats",
		Description: "Bot statistics",
		Handler:     h.Stats,
	})
	reg.RegisterCommand(commands.Command{
		Name:        "cancel",
		Description: "Cancel the current action",
		Handler:     h.Cancel,
	})
	reg.RegisterCommand(commands.Command{
		Name:        "about",
		Description: "About this bot",
		Handler:     h.About,
	})
	reg.RegisterCommand(commands.Command{
		Name:        "contact",
		Description: "Contact the author",
		Handler:     h.Contact,
	})

	reg.RegisterCommand(commands.Command{
		Name:        "admin",
		Handler:     h.AdminPanel,
		Hidden:      true,
		Middlewares: []tele.MiddlewareFunc{adminGuard},
	})
	reg.RegisterCommand(commands.Command{
		Name:        "allusers",
		Handler:     h.AllUsers,
		Hidden:      true,
		Middlewares: []tele.MiddlewareFunc{adminGuard},
	})
	reg.RegisterCommand(commands.Command{
		Name:        "userinfo",
		Handler:     h.UserInfo,
		Hidden:      true,
		Middlewares: []tele.MiddlewareFunc{adminGuard},
	})
	reg.RegisterCommand(commands.Command{
		Name:        "ban",
		Handler:     h.BanStart,
		Hidden:      true,
		Middlewares: []tele.MiddlewareFunc{adminGuard},
	})
	reg.RegisterCommand(commands.Command{
		Name:        "unban",
		Handler:     h.UnbanStart,
		Hidden:      true,
		Middlewares: []tele.MiddlewareFunc{adminGuard},
	})
	reg.RegisterCommand(commands.Command{
		Name:        "broadcast",
		Handler:     h.BroadcastStart,
		Hidden:      true,
		Middlewares: []tele.MiddlewareFunc{adminGuard},
	})

	reg.RegisterCallback(cbMenuWeather, h.WeatherCommand)
	reg.RegisterCallback(cbMenuCatFact, h.CatFact)
	reg.RegisterCallback(cbMenuFavorites, h.Favorites)
	reg.RegisterCallback(cbMenuStats, h.Stats)
	reg.RegisterCallback(cbBackToMain, h.BackToMain)
	reg.RegisterCallback(cbFavWeather, h.FavoriteWeather)
	reg.RegisterCallback(cbFavAdd, h.FavoriteAddStart)
	reg.RegisterCallback(cbFavRemove, h.FavoriteRemoveStart)
	reg.RegisterCallback(cbAdminStats, h.adminOnlyCallback(h.AdminStats))
	reg.RegisterCallback(cbAdminUsers, h.adminOnlyCallback(h.AllUsers))
	reg.RegisterCallback(cbAdminCache, h.adminOnlyCallback(h.AdminCache))
	reg.RegisterCallback(cbAdminCacheClear, h.adminOnlyCallback(h.AdminCacheClear))
	reg.RegisterCallback(cbAdminBroadcast, h.adminOnlyCallback(h.BroadcastStart))
	reg.RegisterCallback(cbBanUser, h.adminOnlyCallback(h.BanStart))
	reg.RegisterCallback(cbUnbanUser, h.adminOnlyCallback(h.UnbanStart))
	reg.RegisterCallback(cbBroadcastConfirm, h.adminOnlyCallback(h.BroadcastConfirm))
	reg.RegisterCallback(cbBroadcastCancel, h.adminOnlyCallback(h.BroadcastCancel))

	reg.SetTextFallback(h.Text)

	h.FSM.Bind(StateAwaitingCity, h.CityInput)
	h.FSM.Bind(StateAwaitingFavoriteAdd, h.FavoriteAddInput)
	h.FSM.Bind(StateAwaitingFavoriteRemove, h.FavoriteRemoveInput)
	h.FSM.Bind(StateAwaitingBroadcastText, h.BroadcastTextInput)
	h.FSM.Bind(StateAwaitingBanUserID, h.BanUserIDInput)
	h.FSM.Bind(StateAwaitingBanReason, h.BanReasonInput)
	h.FSM.Bind(StateAwaitingUnbanUserID, h.UnbanUserIDInput)
}

func (h *Handlers) adminOnlyCallback(inner tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil || h.IsAdmin == nil || !h.IsAdmin(sender.ID) {
			return nil
		}
		return inner(c)
	}
}

// touch records activity for the sender of the current update.
func (h *Handlers) touch(c tele.Context) {
	if sender := c.Sender(); sender != nil {
		h.Store.Touch(sender.ID)
	}
}

func senderID(c tele.Context) int64 {
	if sender := c.Sender(); sender != nil {
		return sender.ID
	}
	return 0
}

// echoMaxLen is the longest free text echoed back verbatim; anything
// longer gets the unknown-command notice instead.
const echoMaxLen = 50

// Text routes plain messages: reply keyboard buttons map to their
// commands, short free text is echoed, long text gets the unknown-command
// notice. Dialogue input never reaches this handler; the router
// dispatches it to the FSM first.
func (h *Handlers) Text(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	switch text {
	case btnWeather:
		return h.WeatherCommand(c)
	case btnCatFact:
		return h.CatFact(c)
	case btnFavorites:
		return h.Favorites(c)
	case btnHelp:
		return h.Help(c)
	}

	h.touch(c)
	if text != "" && !strings.HasPrefix(text, "/") && len([]rune(text)) <= echoMaxLen {
		return helpers.SendText(c,
			fmt.Sprintf("📝 You said: %s\n\nUse the menu below or /help to interact with me.", text),
			mainMenu())
	}
	return helpers.SendText(c, "❓ Unknown command or message too long.\n\nUse /help or pick an action below.", mainMenu())
}

// Cancel aborts any active dialogue.
func (h *Handlers) Cancel(c tele.Context) error {
	userID := senderID(c)
	if h.FSM.Get(userID).State == state.Zero {
		return helpers.SendText(c, "Nothing to cancel.", mainMenu())
	}
	h.FSM.Clear(userID)
	return helpers.SendText(c, "Cancelled.", mainMenu())
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
