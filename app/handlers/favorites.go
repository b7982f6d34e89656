package handlers

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/app/storage"
	"github.com/m3rciful/skybot/core/telegram/callbacks"
	"github.com/m3rciful/skybot/core/telegram/helpers"
	"github.com/m3rciful/skybot/core/telegram/state"
)

// Favorites shows the saved cities as one-tap weather buttons.
func (h *Handlers) Favorites(c tele.Context) error {
	h.touch(c)
	cities := h.Store.Favorites(senderID(c))
	if len(cities) == 0 {
		return helpers.SendText(c, "You have no saved cities yet. Tap ➕ Add to save one.",
			favoritesMenu(nil))
	}
	return helpers.SendText(c, "⭐ Your cities — tap one for the weather:", favoritesMenu(cities))
}

// FavoriteWeather answers the weather for a tapped favorite.
func (h *Handlers) FavoriteWeather(c tele.Context) error {
	h.touch(c)
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	city := callbacks.CallbackPayload(cb.Data)
	if city == "" {
		return nil
	}
	return h.sendWeather(c, city)
}

// FavoriteAddStart begins the add-city dialogue.
func (h *Handlers) FavoriteAddStart(c tele.Context) error {
	h.touch(c)
	h.FSM.Set(senderID(c), state.Session{State: StateAwaitingFavoriteAdd})
	return helpers.SendText(c, "Which city should I save? Type its name, or /cancel.")
}

// FavoriteAddInput stores the typed city.
func (h *Handlers) FavoriteAddInput(c tele.Context, _ state.Session) error {
	h.touch(c)
	userID := senderID(c)
	h.FSM.Clear(userID)

	city := storage.NormalizeCity(c.Text())
	if city == "" {
		return helpers.SendText(c, "That doesn't look like a city name. Try /favorites again.")
	}
	if !h.Store.AddFavorite(userID, city) {
		return helpers.SendText(c, fmt.Sprintf("%s is already in your favorites.", city),
			favoritesMenu(h.Store.Favorites(userID)))
	}
	return helpers.SendText(c, fmt.Sprintf("Saved %s ⭐", city),
		favoritesMenu(h.Store.Favorites(userID)))
}

// FavoriteRemoveStart begins the remove-city dialogue.
func (h *Handlers) FavoriteRemoveStart(c tele.Context) error {
	h.touch(c)
	userID := senderID(c)
	if len(h.Store.Favorites(userID)) == 0 {
		return helpers.SendText(c, "Nothing to remove, your list is empty.")
	}
	h.FSM.Set(userID, state.Session{State: StateAwaitingFavoriteRemove})
	return helpers.SendText(c, "Which city should I remove? Type its name, or /cancel.")
}

// FavoriteRemoveInput drops the typed city.
func (h *Handlers) FavoriteRemoveInput(c tele.Context, _ state.Session) error {
	h.touch(c)
	userID := senderID(c)
	h.FSM.Clear(userID)

	city := storage.NormalizeCity(c.Text())
	if !h.Store.RemoveFavorite(userID, city) {
		return helpers.SendText(c, fmt.Sprintf("%s is not in your favorites.", city),
			favoritesMenu(h.Store.Favorites(userID)))
	}
	return helpers.SendText(c, fmt.Sprintf("Removed %s.", city),
		favoritesMenu(h.Store.Favorites(userID)))
}
