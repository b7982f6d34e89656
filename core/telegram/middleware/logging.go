package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/logger"
	"github.com/m3rciful/skybot/core/telegram/helpers"
)

const loggedFlagKey = "skybot_update_logged"

// MarkLogged records that a router already emitted the summary line for
// this update, so the middleware does not log it twice.
func MarkLogged(c tele.Context) {
	c.Set(loggedFlagKey, true)
}

func alreadyLogged(c tele.Context) bool {
	v, _ := c.Get(loggedFlagKey).(bool)
	return v
}

// LoggerMiddleware seeds the request context (rid, update meta) and emits
// a fallback summary for updates no router claimed.
func LoggerMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			ctx := helpers.BuildContext(c)
			helpers.StoreContext(c, ctx)

			err := next(c)

			if !alreadyLogged(c) {
				logger.LogEvent(ctx, logger.TG, levelFor(err), "update_processed",
					slog.String("status", logger.Status(err)),
				)
			}
			return err
		}
	}
}

func levelFor(err error) slog.Level {
	if err != nil {
		return slog.LevelError
	}
	return slog.LevelInfo
}
