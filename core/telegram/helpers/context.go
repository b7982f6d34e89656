// Package helpers bridges telebot contexts with the request-scoped
// context.Context used for logging and the async sender.
package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/logger"
)

const ctxStoreKey = "skybot_ctx"

// StoreContext attaches a context.Context to the telebot context so that
// downstream handlers share one request scope.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(ctxStoreKey, ctx)
}

// ContextFrom returns the stored request context, building a fresh one
// when middleware has not populated it yet.
func ContextFrom(c tele.Context) context.Context {
	if c != nil {
		if v := c.Get(ctxStoreKey); v != nil {
			if ctx, ok := v.(context.Context); ok {
				return ctx
			}
		}
	}
	return BuildContext(c)
}

// BuildContext derives a request context from the update: rid plus
// update/user/chat identifiers for the log schema.
func BuildContext(c tele.Context) context.Context {
	ctx := context.Background()
	if c == nil {
		return ctx
	}
	var (
		updateID = c.Update().ID
		userID   int64
		chatID   int64
	)
	if sender := c.Sender(); sender != nil {
		userID = sender.ID
	}
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	ctx = logger.WithRID(ctx, logger.BuildRID(updateID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	return ctx
}

// WithHandler stores the handler name in both carriers.
func WithHandler(c tele.Context, name string) context.Context {
	ctx := logger.WithHandler(ContextFrom(c), name)
	StoreContext(c, ctx)
	return ctx
}
