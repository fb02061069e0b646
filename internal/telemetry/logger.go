// Package telemetry periodically logs what the cache did since the previous interval.
package telemetry

import (
	"context"
	"time"

	"github.com/Borislavv/go-ash-httpcache/config"
	"github.com/Borislavv/go-ash-httpcache/internal/shared/bytes"
	"github.com/rs/zerolog"
)

type Logger interface {
	Interval() time.Duration
	Close() error
}

type Logs struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.Cache
	logger   zerolog.Logger
	sampler  sampler
	interval time.Duration
	prevUsed int64 // touched only by the logging goroutine
}

func New(ctx context.Context, cfg *config.Cache, logger zerolog.Logger, c CacheSource, l LoopSource) *Logs {
	ctx, cancel := context.WithCancel(ctx)
	var interval time.Duration
	if cfg.Telemetry.Enabled() {
		interval = cfg.Telemetry.Interval
	}
	return (&Logs{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		sampler:  newSampler(c, l),
		interval: interval,
	}).run()
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) run() *Logs {
	if l.cfg.Telemetry.Enabled() && l.interval > 0 {
		go l.loop()
	}
	return l
}

func (l *Logs) loop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	prev := l.sampler.snapshot()
	l.prevUsed = l.sampler.cache.Metrics().UsedMem
	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			cur := l.sampler.snapshot()
			l.write(deltaSnapshot(prev, cur))
			prev = cur
		}
	}
}

func (l *Logs) write(d snapshot) {
	m := l.sampler.cache.Metrics()
	interval := l.interval.String()

	l.logger.Info().
		Str("interval", interval).
		Uint64("requests", d.requests).
		Uint64("hits", d.hits).
		Uint64("creates", d.creates).
		Uint64("waits", d.waits).
		Uint64("bypasses", d.bypasses).
		Uint64("fulls", d.fulls).
		Uint64("finishes", d.finishes).
		Uint64("aborts", d.aborts).
		Msg("admission")

	if l.cfg.Housekeeping.Enabled() {
		l.logger.Info().
			Str("interval", interval).
			Uint64("ticks", d.ticks).
			Uint64("removed_entries", d.removedEntries).
			Uint64("reclaimed_data", d.reclaimedData).
			Str("freed", bytes.FmtMem(d.freedBytes)).
			Msg("housekeeping")
	}

	if d.streams > 0 || d.rejected > 0 {
		l.logger.Info().
			Str("interval", interval).
			Uint64("started", d.streams).
			Uint64("rejected", d.rejected).
			Uint64("done", d.done).
			Uint64("aborted", d.aborted).
			Uint64("closed", d.closed).
			Str("sent", bytes.FmtMem(d.sent)).
			Msg("serve")
	}

	usedDelta := m.UsedMem - l.prevUsed
	l.prevUsed = m.UsedMem

	l.logger.Info().
		Str("interval", interval).
		Str("used", bytes.FmtMem(uint64(max(m.UsedMem, 0)))).
		Str("used_delta", bytes.FmtDelta(usedDelta)).
		Str("capacity", bytes.FmtMem(uint64(max(m.Capacity, 0)))).
		Int64("entries", m.Entries).
		Int64("buckets", m.Buckets).
		Int64("data_nodes", m.DataNodes).
		Msg("storage")
}
