// Package rate paces periodic work with a token channel fed by a leaky-bucket limiter.
package rate

import (
	"context"
	"go.uber.org/ratelimit"
)

// Jitter emits up to limit tokens per second on Chan. A small buffer absorbs short stalls
// of the consumer; the limiter itself keeps no slack, so an idle consumer does not get a
// burst of catch-up tokens.
type Jitter struct {
	ch    chan struct{}
	l     ratelimit.Limiter
	limit int
}

func NewJitter(ctx context.Context, limit int) *Jitter {
	if limit < 1 {
		limit = 1
	}
	brst := int(float64(limit) * 0.1)
	if brst < 1 {
		brst = 1
	}
	jitter := &Jitter{
		limit: limit,
		ch:    make(chan struct{}, brst),
		l:     ratelimit.New(limit, ratelimit.WithoutSlack),
	}
	go jitter.provider(ctx)
	return jitter
}

func (l *Jitter) provider(ctx context.Context) {
	defer close(l.ch)
	for {
		l.l.Take()
		select {
		case <-ctx.Done():
			return
		case l.ch <- struct{}{}:
		}
	}
}

// Take blocks for the next token. It returns immediately once the context is done.
func (l *Jitter) Take() {
	<-l.ch
}

// Chan is closed when the context is done.
func (l *Jitter) Chan() <-chan struct{} {
	return l.ch
}

func (l *Jitter) Limit() int {
	return l.limit
}
