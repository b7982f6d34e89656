package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/logger"
	"github.com/m3rciful/skybot/core/telegram/helpers"
)

// AdminOptions configures AdminOnlyMiddleware.
type AdminOptions struct {
	// IsAdmin reports membership in the admin allow-list.
	IsAdmin func(userID int64) bool

	// Denied, when set, answers updates from non-admins.
	Denied tele.HandlerFunc
}

// AdminOnlyMiddleware guards a command so only allow-listed users reach
// its handler. Denied updates are logged at warn level.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender != nil && opts.IsAdmin != nil && opts.IsAdmin(sender.ID) {
				return next(c)
			}
			var userID int64
			if sender != nil {
				userID = sender.ID
			}
			logger.LogEvent(helpers.ContextFrom(c), logger.TG, slog.LevelWarn, "access_denied",
				slog.Int64("user_id", userID),
			)
			if opts.Denied != nil {
				return opts.Denied(c)
			}
			return nil
		}
	}
}
