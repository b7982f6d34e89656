// Package sender implements an asynchronous outgoing-message dispatcher.
// Handlers enqueue sends and return immediately; a small worker pool talks
// to the Bot API with retries, so one slow chat does not stall update
// processing.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/logger"
	"github.com/m3rciful/skybot/core/telegram/netutil"
)

// Options tunes the dispatcher pool.
type Options struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	BaseDelay  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 250 * time.Millisecond
	}
	return o
}

// Action performs the actual Bot API call for one job.
type Action func() error

type job struct {
	ctx    context.Context
	op     string
	chatID int64
	action Action
}

// Dispatcher owns the queue and workers. Create with New, stop with Close.
type Dispatcher struct {
	opts  Options
	queue chan job
	wg    sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

// New starts the worker pool.
func New(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts:   opts,
		queue:  make(chan job, opts.QueueSize),
		closed: make(chan struct{}),
	}
	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enqueue schedules an outgoing operation. It returns an error only when
// the dispatcher is shut down or the queue is full; the caller decides
// whether to fall back to a synchronous send.
func (d *Dispatcher) Enqueue(ctx context.Context, op string, chatID int64, action Action) error {
	if action == nil {
		return errors.New("sender: nil action")
	}
	select {
	case <-d.closed:
		return errors.New("sender: dispatcher closed")
	default:
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- job{ctx: ctx, op: op, chatID: chatID, action: action}:
		return nil
	default:
		return errors.New("sender: queue full")
	}
}

// Close stops accepting jobs and waits for in-flight sends to finish.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.closed)
		close(d.queue)
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.handleJob(j)
	}
}

func (d *Dispatcher) handleJob(j job) {
	start := time.Now()
	var err error
	attempts := 0
	for attempts < d.opts.MaxRetries {
		attempts++
		err = j.action()
		if err == nil {
			break
		}
		kind, retryable, wait := classifyError(err)
		if !retryable || attempts >= d.opts.MaxRetries {
			logger.LogEvent(j.ctx, logger.TWire, slog.LevelError, "send_failed",
				slog.String("operation", j.op),
				slog.Int64("chat_id", j.chatID),
				slog.Int("attempts", attempts),
				slog.String("cause", kind),
				slog.Bool("retryable", retryable),
				slog.String("err", sanitizeErrorMessage(err)),
			)
			return
		}
		backoff := wait
		if backoff <= 0 {
			backoff = time.Duration(attempts) * d.opts.BaseDelay
		}
		logger.LogEvent(j.ctx, logger.TWire, slog.LevelDebug, "send_retry",
			slog.String("operation", j.op),
			slog.Int64("chat_id", j.chatID),
			slog.Int("attempts", attempts),
			slog.String("cause", kind),
			slog.Int64("backoff_ms", backoff.Milliseconds()),
		)
		select {
		case <-j.ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
	logger.LogEvent(j.ctx, logger.TWire, slog.LevelDebug, "send_ok",
		slog.String("operation", j.op),
		slog.Int64("chat_id", j.chatID),
		slog.Int("attempts", attempts),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	)
}

// classifyError maps a send error to a cause label, whether it is worth
// retrying, and an optional server-imposed wait.
func classifyError(err error) (kind string, retryable bool, wait time.Duration) {
	if err == nil {
		return "", false, 0
	}

	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return "flood", true, time.Duration(floodErr.RetryAfter) * time.Second
	}

	if code := httpStatusFromError(err); code > 0 {
		switch {
		case code == http.StatusTooManyRequests:
			return "flood", true, 0
		case code >= 500:
			return "http_5xx", true, 0
		case code >= 400:
			return "http_4xx", false, 0
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout", true, 0
	}
	if errors.Is(err, context.Canceled) {
		return "canceled", false, 0
	}
	if netutil.ShouldRetry(err) {
		return "network", true, 0
	}
	return "unknown", false, 0
}

var httpCodeRe = regexp.MustCompile(`\((\d{3})\)`)

func httpStatusFromError(err error) int {
	m := httpCodeRe.FindStringSubmatch(err.Error())
	if len(m) != 2 {
		return 0
	}
	code, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}
	return code
}

var tokenRe = regexp.MustCompile(`bot\d+:[A-Za-z0-9_-]{30,}`)

// sanitizeErrorMessage strips bot tokens that the Bot API client embeds
// in request URLs from error text before it reaches the logs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
	return strings.TrimSpace(fmt.Sprint(msg))
}
