package logger

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	asyncQueueSize     = 4096
	asyncFlushInterval = 500 * time.Millisecond
)

// asyncWriter fans a single log stream out to one or more buffered sinks
// from a dedicated goroutine so that hot paths never block on disk.
// Closing the underlying files is the caller's responsibility.
type asyncWriter struct {
	queue    chan []byte
	flushReq chan chan struct{}
	done     chan struct{}
	sinks    []*bufio.Writer

	closeOnce sync.Once
	closed    chan struct{}
}

func newAsyncWriter(outputs []io.Writer, bufSize int) *asyncWriter {
	w := &asyncWriter{
		queue:    make(chan []byte, asyncQueueSize),
		flushReq: make(chan chan struct{}),
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
	for _, out := range outputs {
		if out == nil {
			continue
		}
		w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	ticker := time.NewTicker(asyncFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				w.flushAll()
				close(w.done)
				return
			}
			w.writeAll(line)
		case ack := <-w.flushReq:
			w.drain()
			w.flushAll()
			close(ack)
		case <-ticker.C:
			w.flushAll()
		}
	}
}

func (w *asyncWriter) drain() {
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				return
			}
			w.writeAll(line)
		default:
			return
		}
	}
}

func (w *asyncWriter) writeAll(line []byte) {
	for _, sink := range w.sinks {
		_, _ = sink.Write(line)
	}
}

func (w *asyncWriter) flushAll() {
	for _, sink := range w.sinks {
		_ = sink.Flush()
	}
}

// Write enqueues a line, falling back to a synchronous flush when the
// queue is saturated so that no records are silently dropped.
func (w *asyncWriter) Write(line []byte) error {
	select {
	case <-w.closed:
		return fmt.Errorf("logger: writer closed")
	default:
	}
	buf := make([]byte, len(line))
	copy(buf, line)
	select {
	case w.queue <- buf:
		return nil
	default:
	}
	// Queue full: block until there is room.
	select {
	case w.queue <- buf:
		return nil
	case <-w.closed:
		return fmt.Errorf("logger: writer closed")
	}
}

// Flush blocks until all enqueued lines have reached the sinks.
func (w *asyncWriter) Flush() error {
	select {
	case <-w.closed:
		return nil
	default:
	}
	ack := make(chan struct{})
	select {
	case w.flushReq <- ack:
		<-ack
	case <-w.closed:
	}
	return nil
}

// Close stops the writer and flushes the sinks.
func (w *asyncWriter) Close() error {
	w.closeOnce.Do(func() {
		close(w.closed)
		close(w.queue)
		<-w.done
	})
	return nil
}
