// Package middleware contains the update-processing pipeline stages.
// Order matters: RecoverMiddleware wraps everything, the ban check runs
// before rate limiting so banned users never consume limiter state, and
// logging/metrics observe whatever survives.
package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/logger"
	"github.com/m3rciful/skybot/core/telegram/helpers"
)

// RecoverMiddleware converts handler panics into logged errors so a single
// bad update cannot kill the poller.
func RecoverMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("handler panic: %v", r)
					logger.LogEvent(helpers.ContextFrom(c), logger.TG, slog.LevelError, "handler_panic",
						slog.String("err", fmt.Sprint(r)),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			return next(c)
		}
	}
}
