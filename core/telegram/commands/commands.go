// Package commands defines the command descriptor shared by the registry
// and the routers.
package commands

import tele "gopkg.in/telebot.v4"

// Command describes a bot command: its slash name, the description shown
// in the Telegram command menu, the handler and optional per-command
// middleware applied before the handler runs.
type Command struct {
	Name        string
	Description string
	Handler     tele.HandlerFunc
	Middlewares []tele.MiddlewareFunc

	// Hidden commands are registered and routable but excluded from the
	// command menu pushed to Telegram.
	Hidden bool
}
