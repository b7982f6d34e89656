package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/logger"
	"github.com/m3rciful/skybot/core/telegram/helpers"
)

// RateLimitOptions configures the per-user throttle.
type RateLimitOptions struct {
	// Interval is the minimum gap between two processed updates from the
	// same user. Zero or negative disables the limiter.
	Interval time.Duration

	// OnLimited, when set, runs once per suppressed update.
	OnLimited tele.HandlerFunc

	// Clock is injectable for tests; real clock when nil.
	Clock clockwork.Clock
}

// RateLimitMiddleware drops updates arriving faster than Interval per
// user. Suppressed updates are logged, optionally answered, and never
// reach the handler.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Interval <= 0 {
		return func(next tele.HandlerFunc) tele.HandlerFunc { return next }
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var mu sync.Mutex
	lastSeen := make(map[int64]time.Time)

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return next(c)
			}

			now := clock.Now()
			mu.Lock()
			last, seen := lastSeen[sender.ID]
			limited := seen && now.Sub(last) < opts.Interval
			if !limited {
				lastSeen[sender.ID] = now
			}
			mu.Unlock()

			if !limited {
				return next(c)
			}

			logger.LogEvent(helpers.ContextFrom(c), logger.TG, slog.LevelDebug, "update_rejected",
				slog.Bool("rate_limited", true),
				slog.Int64("user_id", sender.ID),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
