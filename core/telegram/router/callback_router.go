package router

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/telegram/callbacks"
)

// CallbackSource resolves callback keys; satisfied by the registry.
type CallbackSource interface {
	GetCallback(key string) (tele.HandlerFunc, bool)
	CallbackNotFound() tele.HandlerFunc
}

// BindCallbacks routes inline button presses by their unique key. Every
// callback is answered so the client stops its spinner, even for unknown
// keys.
func BindCallbacks(bot *tele.Bot, src CallbackSource) {
	bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key := callbacks.CallbackKey(cb.Data)
		handler, ok := src.GetCallback(key)
		if !ok {
			handler = src.CallbackNotFound()
		}
		if handler == nil {
			return c.Respond()
		}
		name := normalizeHandlerName("cb_" + key)
		return handleWithSummary(name, func(c tele.Context) error {
			defer func() { _ = c.Respond() }()
			return handler(c)
		})(c)
	})
}
