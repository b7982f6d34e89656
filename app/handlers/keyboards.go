package handlers

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/telegram/keyboard"
)

// Reply keyboard button labels; the text router matches on these.
const (
	btnWeather   = "🌤 Weather"
	btnCatFact   = "🐱 Cat Fact"
	btnFavorites = "⭐ Favorites"
	btnHelp      = "❓ Help"
)

// Callback unique keys.
const (
	cbMenuWeather      = "weather"
	cbMenuCatFact      = "cat_fact"
	cbMenuFavorites    = "favorites"
	cbMenuStats        = "stats"
	cbBackToMain       = "back_to_main"
	cbFavWeather       = "fav_weather"
	cbFavAdd           = "fav_add"
	cbFavRemove        = "fav_remove"
	cbAdminStats       = "admin_stats"
	cbAdminUsers       = "admin_users"
	cbAdminCache       = "admin_cache"
	cbAdminCacheClear  = "admin_cache_clear"
	cbAdminBroadcast   = "admin_broadcast"
	cbBanUser          = "ban_user"
	cbUnbanUser        = "unban_user"
	cbBroadcastConfirm = "bc_confirm"
	cbBroadcastCancel  = "bc_cancel"
)

func mainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnWeather, btnCatFact},
		[]string{btnFavorites, btnHelp},
	)
}

func mainInlineMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]tele.InlineButton{
			keyboard.InlineBtn("🌤 Weather", cbMenuWeather, ""),
			keyboard.InlineBtn("🐱 Cat fact", cbMenuCatFact, ""),
		},
		[]tele.InlineButton{
			keyboard.InlineBtn("⭐ Favorites", cbMenuFavorites, ""),
			keyboard.InlineBtn("📊 Stats", cbMenuStats, ""),
		},
	)
}

func favoritesMenu(cities []string) *tele.ReplyMarkup {
	buttons := make([]tele.InlineButton, 0, len(cities))
	for _, city := range cities {
		buttons = append(buttons, keyboard.InlineBtn(city, cbFavWeather, city))
	}
	markup := keyboard.InlineGrid(buttons, 2)
	markup.InlineKeyboard = append(markup.InlineKeyboard,
		[]tele.InlineButton{
			keyboard.InlineBtn("➕ Add", cbFavAdd, ""),
			keyboard.InlineBtn("➖ Remove", cbFavRemove, ""),
		},
		[]tele.InlineButton{
			keyboard.InlineBtn("⬅ Back", cbBackToMain, ""),
		})
	return markup
}

func adminMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]tele.InlineButton{
			keyboard.InlineBtn("📊 Stats", cbAdminStats, ""),
			keyboard.InlineBtn("👥 Users", cbAdminUsers, "1"),
		},
		[]tele.InlineButton{
			keyboard.InlineBtn("🗄 Cache", cbAdminCache, ""),
			keyboard.InlineBtn("📣 Broadcast", cbAdminBroadcast, ""),
		},
	)
}

func broadcastConfirmMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]tele.InlineButton{
			keyboard.InlineBtn("✅ Send", cbBroadcastConfirm, ""),
			keyboard.InlineBtn("❌ Cancel", cbBroadcastCancel, ""),
		},
	)
}

func cacheMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]tele.InlineButton{
			keyboard.InlineBtn("🧹 Clear all", cbAdminCacheClear, ""),
		},
	)
}

func usersPageMenu(page, pages int) *tele.ReplyMarkup {
	var nav []tele.InlineButton
	if page > 1 {
		nav = append(nav, keyboard.InlineBtn("⬅️", cbAdminUsers, itoa(page-1)))
	}
	if page < pages {
		nav = append(nav, keyboard.InlineBtn("➡️", cbAdminUsers, itoa(page+1)))
	}
	moderation := []tele.InlineButton{
		keyboard.InlineBtn("🚫 Ban", cbBanUser, ""),
		keyboard.InlineBtn("✅ Unban", cbUnbanUser, ""),
	}
	if len(nav) == 0 {
		return keyboard.InlineButtonsRows(moderation)
	}
	return keyboard.InlineButtonsRows(nav, moderation)
}
