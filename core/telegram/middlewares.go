package telegram

import (
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/skybot/core/config"
	"github.com/m3rciful/skybot/core/telegram/middleware"
)

// DefaultMiddlewares assembles the global pipeline. The ban stage runs
// before rate limiting so banned traffic never touches limiter state.
func DefaultMiddlewares(cfg *coreconfig.Config, ban tele.MiddlewareFunc, onLimited tele.HandlerFunc) []tele.MiddlewareFunc {
	chain := []tele.MiddlewareFunc{
		middleware.RecoverMiddleware(),
	}
	if ban != nil {
		chain = append(chain, ban)
	}
	chain = append(chain,
		middleware.RateLimitMiddleware(middleware.RateLimitOptions{
			Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
			OnLimited: onLimited,
		}),
		middleware.LoggerMiddleware(),
		middleware.MessageMetricsMiddleware(),
	)
	return chain
}
