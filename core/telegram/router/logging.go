// Package router binds registry entries to telebot endpoints and emits
// one summary log line per routed update.
package router

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/logger"
	"github.com/m3rciful/skybot/core/telegram/helpers"
	"github.com/m3rciful/skybot/core/telegram/middleware"
)

func handleWithSummary(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		ctx := helpers.WithHandler(c, name)
		err := h(c)
		logHandlerSummary(ctx, name, start, err)
		middleware.MarkLogged(c)
		return err
	}
}

func logHandlerSummary(ctx context.Context, name string, start time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("handler", name),
		slog.String("status", logger.Status(err)),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs,
			slog.String("err", err.Error()),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, level, "handler_done", attrs...)
}

func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "forbidden") || strings.Contains(msg, "blocked"):
		return "forbidden"
	default:
		return "internal"
	}
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(strings.TrimPrefix(name, "/"))
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}
