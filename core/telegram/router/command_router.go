package router

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/telegram/commands"
)

// CommandSource lists the registered commands; satisfied by the registry.
type CommandSource interface {
	ListCommands() []commands.Command
}

// BindCommands attaches every registered command to the bot, wrapping each
// handler with its per-command middleware and a summary log line.
func BindCommands(bot *tele.Bot, src CommandSource) {
	for _, cmd := range src.ListCommands() {
		handler := cmd.Handler
		for i := len(cmd.Middlewares) - 1; i >= 0; i-- {
			handler = cmd.Middlewares[i](handler)
		}
		bot.Handle("/"+cmd.Name, handleWithSummary(normalizeHandlerName(cmd.Name), handler))
	}
}
