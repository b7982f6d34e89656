package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/logger"
	"github.com/m3rciful/skybot/core/telegram/helpers"
)

// BanChecker answers whether a user is currently banned.
type BanChecker interface {
	IsBanned(userID int64) bool
}

// BanOptions configures BanMiddleware.
type BanOptions struct {
	Checker BanChecker

	// OnBanned, when set, runs for rejected updates (e.g. to tell the
	// user they are banned). Its error is swallowed.
	OnBanned tele.HandlerFunc
}

// BanMiddleware rejects updates from banned users before any other stage
// sees them. Updates without a sender pass through.
func BanMiddleware(opts BanOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil || opts.Checker == nil || !opts.Checker.IsBanned(sender.ID) {
				return next(c)
			}
			logger.LogEvent(helpers.ContextFrom(c), logger.TG, slog.LevelInfo, "update_rejected",
				slog.String("status", "banned"),
				slog.Int64("user_id", sender.ID),
			)
			if opts.OnBanned != nil {
				_ = opts.OnBanned(c)
			}
			return nil
		}
	}
}
