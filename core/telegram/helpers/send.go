package helpers

import (
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/logger"
	"github.com/m3rciful/skybot/core/telegram/sender"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs the async sender used by the Send helpers.
// Pass nil to force synchronous sends (tests rely on this).
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

func sendAsync(c tele.Context, op string, action sender.Action) error {
	d := dispatcher.Load()
	if d == nil {
		return action()
	}
	var chatID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if err := d.Enqueue(ContextFrom(c), op, chatID, action); err != nil {
		// Queue saturated or dispatcher stopped: do not lose the message.
		logger.LogEvent(ContextFrom(c), logger.TWire, slog.LevelWarn, "send_fallback_sync",
			slog.String("operation", op),
			slog.String("err", err.Error()),
		)
		return action()
	}
	return nil
}

// SendText sends plain text asynchronously.
func SendText(c tele.Context, text string, opts ...any) error {
	return sendAsync(c, "send_text", func() error {
		return c.Send(text, opts...)
	})
}

// SendMD sends Markdown-formatted text asynchronously.
func SendMD(c tele.Context, text string, opts ...any) error {
	return sendAsync(c, "send_md", func() error {
		return c.Send(text, append(opts, tele.ModeMarkdown)...)
	})
}

// EditMD edits the message that triggered the callback, in Markdown.
func EditMD(c tele.Context, text string, opts ...any) error {
	return sendAsync(c, "edit_md", func() error {
		return c.Edit(text, append(opts, tele.ModeMarkdown)...)
	})
}

// EditOrSendMD edits when the update carries an editable message and
// falls back to a regular send otherwise.
func EditOrSendMD(c tele.Context, text string, opts ...any) error {
	if c.Callback() == nil || c.Message() == nil {
		return SendMD(c, text, opts...)
	}
	return sendAsync(c, "edit_or_send_md", func() error {
		if err := c.Edit(text, append(opts, tele.ModeMarkdown)...); err != nil {
			return c.Send(text, append(opts, tele.ModeMarkdown)...)
		}
		return nil
	})
}
