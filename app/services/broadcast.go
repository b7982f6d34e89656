package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/skybot/core/logger"
)

// SendFunc delivers one broadcast message; it is the only Telegram
// dependency the broadcaster has.
type SendFunc func(userID int64, text string) error

// ProgressFunc receives cumulative delivery counts while a run is in
// flight, every 10 recipients and once at the end.
type ProgressFunc func(sent, failed, total int)

// BroadcastReport summarizes one finished broadcast run.
type BroadcastReport struct {
	ID     string
	Sent   int
	Failed int
	Total  int
}

// Broadcaster sends a message to many users sequentially, pacing sends
// to stay under Bot API flood limits.
type Broadcaster struct {
	send  SendFunc
	delay time.Duration
}

// NewBroadcaster builds a broadcaster. delay is the pause between two
// consecutive sends; zero disables pacing (tests).
func NewBroadcaster(send SendFunc, delay time.Duration) *Broadcaster {
	return &Broadcaster{send: send, delay: delay}
}

// Run delivers text to every user id. Individual failures (blocked bot,
// deleted account) are counted and skipped; cancellation stops the run
// early with a partial report. Cumulative progress is logged and reported
// through progress (may be nil) every 10 recipients.
func (b *Broadcaster) Run(ctx context.Context, userIDs []int64, text string, progress ProgressFunc) BroadcastReport {
	report := BroadcastReport{
		ID:    uuid.NewString(),
		Total: len(userIDs),
	}

	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "broadcast_started",
		slog.String("broadcast_id", report.ID),
		slog.Int("total", report.Total))

	for i, userID := range userIDs {
		select {
		case <-ctx.Done():
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "broadcast_canceled",
				slog.String("broadcast_id", report.ID),
				slog.Int("sent", report.Sent),
				slog.Int("failed", report.Failed),
				slog.Int("total", report.Total))
			return report
		default:
		}

		if err := b.send(userID, text); err != nil {
			report.Failed++
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "broadcast_send_failed",
				slog.String("broadcast_id", report.ID),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()))
		} else {
			report.Sent++
		}

		if done := i + 1; done%10 == 0 || done == report.Total {
			if progress != nil {
				progress(report.Sent, report.Failed, report.Total)
			}
			if done < report.Total {
				logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "broadcast_progress",
					slog.String("broadcast_id", report.ID),
					slog.Int("sent", report.Sent),
					slog.Int("failed", report.Failed),
					slog.Int("total", report.Total))
			}
		}

		if b.delay > 0 && i < len(userIDs)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(b.delay):
			}
		}
	}

	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "broadcast_finished",
		slog.String("broadcast_id", report.ID),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
		slog.Int("total", report.Total))
	return report
}
