package handlers

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/buildinfo"
	"github.com/m3rciful/skybot/core/telegram/helpers"
)

// Start greets the user and registers them in the store.
func (h *Handlers) Start(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	isNew := h.Store.Register(sender.ID, sender.Username)
	h.Store.Touch(sender.ID)

	greeting := "Welcome back! 👋"
	if isNew {
		greeting = "Hello! 👋 I can show you the weather, save your favorite cities and share cat facts."
	}
	return helpers.SendText(c, greeting+"\n\nUse the menu below or /help to see what I can do.", mainMenu())
}

// Help lists the available commands.
func (h *Handlers) Help(c tele.Context) error {
	h.touch(c)
	text := "What I can do:\n\n" +
		"🌤 /weather — current weather for any city\n" +
		"⭐ /favorites — your saved cities with one-tap weather\n" +
		"🐱 /catfact — a random cat fact\n" +
		"❌ /cancel — abort the current action\n" +
		"ℹ️ /about — about this bot\n" +
		"✉️ /contact — contact the author"
	return helpers.SendText(c, text, mainMenu())
}

// About shows version information.
func (h *Handlers) About(c tele.Context) error {
	h.touch(c)
	text := fmt.Sprintf("SkyBot %s (%s)\n\nWeather, favorite cities and cat facts in one bot.",
		buildinfo.Version, buildinfo.Commit)
	return helpers.SendText(c, text)
}

// Contact shows how to reach the author.
func (h *Handlers) Contact(c tele.Context) error {
	h.touch(c)
	return helpers.SendText(c, "Questions or feedback? Write to @skybot_support.")
}

// Stats shows global usage totals plus the caller's saved cities.
func (h *Handlers) Stats(c tele.Context) error {
	h.touch(c)
	stats := h.Store.Statistics()
	favs := h.Store.Favorites(senderID(c))

	var b strings.Builder
	b.WriteString("📊 Bot statistics\n\n")
	fmt.Fprintf(&b, "👥 Users: %d\n", stats.TotalUsers)
	fmt.Fprintf(&b, "📈 Requests: %d\n", stats.TotalRequests)
	fmt.Fprintf(&b, "🚀 Running since: %s UTC\n", stats.StartedAt.Format(timeLayout))
	fmt.Fprintf(&b, "\n⭐ Your cities (%d):\n", len(favs))
	if len(favs) == 0 {
		b.WriteString("none saved yet")
	} else {
		for _, city := range favs {
			fmt.Fprintf(&b, "• %s\n", city)
		}
	}
	return helpers.SendText(c, b.String(), mainInlineMenu())
}

// BackToMain aborts any active dialogue and shows the main menu.
func (h *Handlers) BackToMain(c tele.Context) error {
	h.FSM.Clear(senderID(c))
	return helpers.SendText(c, "Main menu — pick an action:", mainInlineMenu())
}
