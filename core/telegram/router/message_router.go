package router

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/telegram/state"
)

// TextSource provides the fallback handler for free text; satisfied by
// the registry.
type TextSource interface {
	TextFallback() tele.HandlerFunc
}

// BindText routes plain text messages. An active dialogue state takes
// precedence; otherwise the registry's fallback runs, if any.
func BindText(bot *tele.Bot, fsm state.Manager, src TextSource) {
	bot.Handle(tele.OnText, handleWithSummary("text", func(c tele.Context) error {
		if sender := c.Sender(); sender != nil && fsm != nil {
			handled, err := fsm.Dispatch(c, sender.ID)
			if handled || err != nil {
				return err
			}
		}
		if fallback := src.TextFallback(); fallback != nil {
			return fallback(c)
		}
		return nil
	}))
}
