package handlers

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/telegram/helpers"
)

// CatFact sends a random cat fact.
func (h *Handlers) CatFact(c tele.Context) error {
	h.touch(c)
	fact, err := h.Cats.Fetch(helpers.ContextFrom(c))
	if err != nil {
		return helpers.SendText(c, "The cat facts service is napping 😿 Try again later.")
	}
	return helpers.SendText(c, "🐱 "+fact, mainMenu())
}
