// Package loop runs the cache on one goroutine.
//
// Request goroutines never touch cache state. They submit short closures with Exec and
// register reader streams that the loop advances one chunk at a time. Between tasks the
// loop runs paced housekeeping ticks.
package loop

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/Borislavv/go-ash-httpcache/config"
	"github.com/Borislavv/go-ash-httpcache/internal/cache"
	"github.com/Borislavv/go-ash-httpcache/internal/serve"
	"github.com/Borislavv/go-ash-httpcache/internal/shared/queue"
	"github.com/Borislavv/go-ash-httpcache/internal/shared/rate"
	"github.com/rs/zerolog"
)

var ErrClosed = errors.New("event loop closed")

type task struct {
	fn   func(c *cache.Cache)
	done chan struct{}
}

type stream struct {
	reader    *serve.Reader
	transport serve.Transport
	onEnd     func(serve.Status)
}

type Loop struct {
	cfg      *config.Cache
	cache    *cache.Cache
	logger   zerolog.Logger
	tasks    chan task
	wake     chan struct{}
	done     chan struct{}
	streams  queue.Queue[*stream]
	active   atomic.Int64
	counters *counters
}

// New starts the loop. It stops when ctx is done; Done is closed afterwards.
func New(ctx context.Context, cfg *config.Cache, c *cache.Cache, logger zerolog.Logger) *Loop {
	l := &Loop{
		cfg:      cfg,
		cache:    c,
		logger:   logger,
		tasks:    make(chan task, cfg.Loop.TaskQueue),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		counters: &counters{},
	}
	// one slot of the ring stays empty
	l.streams.Init(cfg.Loop.MaxReaders + 1)

	var ticks <-chan struct{}
	if cfg.Enabled && cfg.Housekeeping.Enabled() {
		jitter := rate.NewJitter(ctx, cfg.Housekeeping.Rate)
		ticks = jitter.Chan()
		logger.Info().Int("rate", jitter.Limit()).Msg("[loop] housekeeping scheduled")
	}
	go l.run(ctx, ticks)
	return l
}

// Exec runs fn on the loop goroutine and waits for it to return. fn must not block.
func (l *Loop) Exec(ctx context.Context, fn func(c *cache.Cache)) error {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case l.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}

	select {
	case <-t.done:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Wake asks the loop to advance its streams. Never blocks.
func (l *Loop) Wake() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Stream hands r over to the loop, which steps it against t until it ends and then
// calls onEnd on the loop goroutine. Returns false when too many readers are active;
// the caller keeps ownership of r then. Must be called from inside an Exec closure.
func (l *Loop) Stream(r *serve.Reader, t serve.Transport, onEnd func(serve.Status)) bool {
	if !l.streams.TryPush(&stream{reader: r, transport: t, onEnd: onEnd}) {
		l.counters.rejected.Add(1)
		return false
	}
	l.active.Add(1)
	l.counters.streams.Add(1)
	l.Wake()
	return true
}

func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) run(ctx context.Context, ticks <-chan struct{}) {
	l.logger.Info().Msg("[loop] event loop is running")
	defer func() {
		l.shutdown()
		close(l.done)
		l.logger.Info().Msg("[loop] event loop stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-l.tasks:
			t.fn(l.cache)
			close(t.done)
			l.counters.tasks.Add(1)
			l.pump()
		case <-l.wake:
			l.pump()
		case _, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			l.cache.Housekeeping()
		}
	}
}

// pump steps every stream once. A stream that moved is stepped again on the next wake.
func (l *Loop) pump() {
	progressed := false
	for n := l.streams.Len(); n > 0; n-- {
		s, ok := l.streams.TryPop()
		if !ok {
			break
		}
		l.counters.steps.Add(1)

		status := s.reader.Step(s.transport)
		if !status.Final() {
			progressed = progressed || status == serve.StatusProgress
			if !l.streams.TryPush(s) {
				s.reader.Detach()
				l.end(s, serve.StatusClosed)
			}
			continue
		}
		l.end(s, status)
	}
	if progressed {
		l.Wake()
	}
}

func (l *Loop) end(s *stream, status serve.Status) {
	l.active.Add(-1)
	l.counters.sent.Add(s.reader.Sent())
	switch status {
	case serve.StatusDone:
		l.counters.done.Add(1)
	case serve.StatusAborted:
		l.counters.aborted.Add(1)
	default:
		l.counters.closed.Add(1)
	}
	if l.logger.Trace().Enabled() {
		l.logger.Trace().
			Str("status", status.String()).
			Int("chunks", s.reader.Chunks()).
			Int64("sent", s.reader.Sent()).
			Msg("[loop] stream ended")
	}
	if s.onEnd != nil {
		s.onEnd(status)
	}
}

func (l *Loop) shutdown() {
	for {
		s, ok := l.streams.TryPop()
		if !ok {
			return
		}
		s.reader.Detach()
		l.end(s, serve.StatusClosed)
	}
}

// Metrics is safe to call from any goroutine.
func (l *Loop) Metrics() Metrics {
	m := l.counters.snapshot()
	m.Active = l.active.Load()
	m.Queued = int64(len(l.tasks))
	return m
}
