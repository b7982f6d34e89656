package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// Counters is a snapshot of update/send totals since process start.
type Counters struct {
	UpdatesTotal  int64
	UpdatesFailed int64
	MessagesSent  int64
}

var (
	updatesTotal  atomic.Int64
	updatesFailed atomic.Int64
	messagesSent  atomic.Int64
)

// GetCounters returns the current totals.
func GetCounters() Counters {
	return Counters{
		UpdatesTotal:  updatesTotal.Load(),
		UpdatesFailed: updatesFailed.Load(),
		MessagesSent:  messagesSent.Load(),
	}
}

// MessageMetricsMiddleware counts processed updates and, by wrapping the
// telebot context, outgoing messages sent synchronously from handlers.
func MessageMetricsMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			updatesTotal.Add(1)
			err := next(&metricsContext{Context: c})
			if err != nil {
				updatesFailed.Add(1)
			}
			return err
		}
	}
}

type metricsContext struct {
	tele.Context
}

func (m *metricsContext) Send(what interface{}, opts ...interface{}) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		messagesSent.Add(1)
	}
	return err
}

func (m *metricsContext) Reply(what interface{}, opts ...interface{}) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		messagesSent.Add(1)
	}
	return err
}
