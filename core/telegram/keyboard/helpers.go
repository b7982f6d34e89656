// Package keyboard wraps telebot markup construction behind small helpers
// so handlers build keyboards declaratively.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn creates an inline button with a callback unique key and
// optional payload.
func InlineBtn(text, unique, payload string) tele.InlineButton {
	return tele.InlineButton{Text: text, Unique: unique, Data: payload}
}

// InlineButtonsRows builds inline markup from pre-assembled rows.
func InlineButtonsRows(rows ...[]tele.InlineButton) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// InlineGrid lays buttons out in rows of perRow columns.
func InlineGrid(buttons []tele.InlineButton, perRow int) *tele.ReplyMarkup {
	if perRow <= 0 {
		perRow = 1
	}
	var rows [][]tele.InlineButton
	for start := 0; start < len(buttons); start += perRow {
		end := start + perRow
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[start:end])
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// ReplyButtons builds a persistent reply keyboard, one row per slice.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	for _, row := range rows {
		btns := make([]tele.ReplyButton, 0, len(row))
		for _, text := range row {
			btns = append(btns, tele.ReplyButton{Text: text})
		}
		markup.ReplyKeyboard = append(markup.ReplyKeyboard, btns)
	}
	return markup
}

// RemoveKeyboard hides the current reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
