// Package cache is the response cache engine: it derives keys, admits or refuses fills,
// tracks entry states and sweeps garbage.
//
// A Cache is driven by a single goroutine (the event loop). Every method except Match
// and Metrics must be called from that goroutine only.
package cache

import (
	"errors"
	"fmt"

	"github.com/Borislavv/go-ash-httpcache/config"
	"github.com/Borislavv/go-ash-httpcache/internal/cache/admission"
	"github.com/Borislavv/go-ash-httpcache/internal/cache/data"
	"github.com/Borislavv/go-ash-httpcache/internal/cache/db"
	"github.com/Borislavv/go-ash-httpcache/internal/cache/db/model"
	"github.com/Borislavv/go-ash-httpcache/internal/cache/hash"
	"github.com/Borislavv/go-ash-httpcache/internal/cache/key"
	"github.com/Borislavv/go-ash-httpcache/internal/cache/pool"
	"github.com/Borislavv/go-ash-httpcache/internal/shared/cachedtime"
	"github.com/rs/zerolog"
)

type Cache struct {
	cfg      *config.Cache
	logger   zerolog.Logger
	rules    []*Rule
	builder  *key.Builder
	hash     hash.Func
	mem      *admission.Controller
	dict     *db.Dict
	ring     *data.Ring
	counters *counters
	now      func() int64 // unix seconds
}

// New builds an engine from an adjusted and validated config.
// It fails when the pools or the dictionary cannot be sized.
func New(cfg *config.Cache, logger zerolog.Logger) (*Cache, error) {
	if cfg.DB.MaxEntries < 0 || cfg.DB.MaxData < 0 || cfg.DB.MaxElements < 0 || cfg.DB.MaxKeyBytes < 0 {
		return nil, fmt.Errorf("negative pool limit: %w", ErrOutOfMemory)
	}
	if cfg.DB.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", cfg.DB.ChunkSize, ErrOutOfMemory)
	}
	if cfg.DB.MaxEntries > 0 && int64(cfg.DB.InitialBuckets) > cfg.DB.MaxEntries {
		return nil, fmt.Errorf("initial buckets %d exceed max entries %d: %w",
			cfg.DB.InitialBuckets, cfg.DB.MaxEntries, ErrOutOfMemory)
	}

	fn, err := hash.ByName(cfg.DB.Hash)
	if err != nil {
		return nil, err
	}
	rules, err := RulesFromConfig(cfg.Rules)
	if err != nil {
		return nil, err
	}

	mem := admission.New(cfg.DB.SizeBytes)
	c := &Cache{
		cfg:      cfg,
		logger:   logger,
		rules:    rules,
		builder:  key.NewBuilder(cfg.DB.KeyIncrement, cfg.DB.MaxKeyBytes, cfg.DB.BodyMatching, key.FirstCookie),
		hash:     fn,
		mem:      mem,
		dict:     db.NewDict(cfg.DB.InitialBuckets, pool.New[model.Entry]("entry", cfg.DB.MaxEntries, nil)),
		ring:     data.NewRing(cfg.DB.MaxData, pool.New[data.Element]("element", cfg.DB.MaxElements, nil), mem),
		counters: newCounters(),
		now:      cachedtime.Unix,
	}

	logger.Info().
		Bool("enabled", cfg.Enabled).
		Int64("capacity", cfg.DB.SizeBytes).
		Int("chunk_size", cfg.DB.ChunkSize).
		Int("rules", len(rules)).
		Str("hash", string(cfg.DB.Hash)).
		Msg("[cache] engine initialized")

	return c, nil
}

func (c *Cache) Enabled() bool          { return c.cfg.Enabled }
func (c *Cache) Rules() []*Rule         { return c.rules }
func (c *Cache) Ring() *data.Ring       { return c.ring }
func (c *Cache) Full() bool             { return c.mem.Full() }
func (c *Cache) Hash(key string) uint64 { return c.hash.String(key) }

// Match stashes the derived key of every rule whose condition holds for view.
// It reads only immutable state and may run on the request goroutine.
func (c *Cache) Match(ctx *Ctx, view key.RequestView) error {
	if !c.cfg.Enabled {
		return nil
	}
	for _, rule := range c.rules {
		if !rule.Test(view) {
			continue
		}
		k, err := c.builder.Build(rule.components, view)
		if err != nil {
			if errors.Is(err, key.ErrOutOfMemory) {
				return fmt.Errorf("rule %q: %w", rule.name, ErrOutOfMemory)
			}
			return fmt.Errorf("rule %q: %w", rule.name, err)
		}
		ctx.stash = append(ctx.stash, Stash{Rule: rule, Key: k, Hash: c.hash.String(k)})
	}
	if c.logger.Debug().Enabled() && len(ctx.stash) > 0 {
		c.logger.Debug().
			Int("matched", len(ctx.stash)).
			Str("rule", ctx.stash[0].Rule.name).
			Str("key", ctx.stash[0].Key).
			Msg("[cache] key derived")
	}
	return nil
}

// Begin runs Create for the first stashed rule. Without one the request bypasses.
func (c *Cache) Begin(ctx *Ctx) Status {
	s, ok := ctx.First()
	if !ok {
		c.counters.requests.Add(1)
		return c.outcome(ctx, StatusBypass)
	}
	ctx.ttl = s.Rule.ttl
	return c.Create(ctx, s.Key, s.Hash)
}

// Create looks key up and decides what the request does with it.
func (c *Cache) Create(ctx *Ctx, key string, hash uint64) Status {
	c.counters.requests.Add(1)

	if !c.cfg.Enabled {
		return c.outcome(ctx, StatusBypass)
	}
	if c.mem.Full() {
		return c.outcome(ctx, StatusFull)
	}

	if e := c.dict.Get(hash, key); e != nil {
		e.Expire(c.now())
		switch e.State() {
		case model.StateCreating:
			ctx.entry, ctx.data = e, e.Data()
			return c.outcome(ctx, StatusWait)
		case model.StateValid:
			ctx.entry, ctx.data = e, e.Data()
			return c.outcome(ctx, StatusHit)
		case model.StateExpired, model.StateInvalid:
			ref, ok := c.ring.New()
			if !ok {
				c.logger.Warn().Str("key", key).Msg("[cache] data arena exhausted, bypassing")
				return c.outcome(ctx, StatusBypass)
			}
			if old := c.ring.Get(e.Data()); old != nil {
				old.Invalidate()
			}
			e.Bind(ref)
			ctx.entry, ctx.data = e, ref
			return c.outcome(ctx, StatusCreate)
		default:
			return c.outcome(ctx, StatusBypass)
		}
	}

	ref, ok := c.ring.New()
	if !ok {
		c.logger.Warn().Str("key", key).Msg("[cache] data arena exhausted, bypassing")
		return c.outcome(ctx, StatusBypass)
	}
	e := c.dict.Set(hash, key)
	if e == nil {
		c.ring.Get(ref).Invalidate()
		c.logger.Warn().Str("key", key).Msg("[cache] entry pool exhausted, bypassing")
		return c.outcome(ctx, StatusBypass)
	}
	e.Bind(ref)
	ctx.entry, ctx.data = e, ref
	return c.outcome(ctx, StatusCreate)
}

func (c *Cache) outcome(ctx *Ctx, s Status) Status {
	ctx.status = s
	c.counters.count(s)
	return s
}

// Update appends seg1 followed by seg2 to the fill, split into chunks of the configured size.
// Two segments cover a source that wraps around the end of a circular buffer.
// When a chunk cannot be allocated the fill is aborted and ErrOutOfMemory returned.
func (c *Cache) Update(ctx *Ctx, seg1, seg2 []byte) error {
	if ctx.status != StatusCreate {
		return ErrNotCreating
	}
	if d := c.ring.Get(ctx.data); d == nil || d.Invalid() {
		return ErrInvalidated
	}

	chunk := c.cfg.DB.ChunkSize
	for len(seg1)+len(seg2) > 0 {
		a := seg1[:min(chunk, len(seg1))]
		b := seg2[:min(chunk-len(a), len(seg2))]
		if _, ok := c.ring.Append(ctx.data, a, b); !ok {
			c.logger.Warn().Str("key", ctx.entry.Key()).Msg("[cache] element pool exhausted, aborting fill")
			_ = c.Abort(ctx)
			return ErrOutOfMemory
		}
		seg1, seg2 = seg1[len(a):], seg2[len(b):]
	}
	return nil
}

// Finish makes the fill servable for the context ttl (zero: forever).
func (c *Cache) Finish(ctx *Ctx) error {
	if ctx.status != StatusCreate {
		return ErrNotCreating
	}

	var expireAt int64
	if ctx.ttl > 0 {
		expireAt = c.now() + int64(ctx.ttl)
	}
	ctx.entry.Validate(expireAt)
	if d := c.ring.Get(ctx.data); d != nil {
		d.MarkComplete()
	}

	ctx.status = StatusDone
	c.counters.finishes.Add(1)
	return nil
}

// Abort drops the fill. Readers following it end with an aborted stream and the next
// request for the key starts over.
func (c *Cache) Abort(ctx *Ctx) error {
	if ctx.status != StatusCreate {
		return ErrNotCreating
	}

	ctx.entry.Invalidate()
	if d := c.ring.Get(ctx.data); d != nil {
		d.Invalidate()
	}

	ctx.status = StatusDone
	c.counters.aborts.Add(1)
	return nil
}

// Exists returns the data of a valid entry for key.
func (c *Cache) Exists(key string, hash uint64) (data.Ref, bool) {
	e := c.dict.Get(hash, key)
	if e == nil {
		return data.Ref{}, false
	}
	e.Expire(c.now())
	if !e.Is(model.StateValid) {
		return data.Ref{}, false
	}
	return e.Data(), true
}

// Housekeeping does one bounded round of maintenance: one rehash step, one dictionary
// cleanup step and one ring cleanup step.
func (c *Cache) Housekeeping() {
	if !c.cfg.Enabled {
		return
	}
	c.counters.ticks.Add(1)

	c.dict.RehashStep()

	budget := config.DefaultCleanupBuckets
	if c.cfg.Housekeeping.Enabled() {
		budget = c.cfg.Housekeeping.CleanupBuckets
	}
	if removed := c.dict.CleanupStep(budget, c.reclaim); removed > 0 {
		c.counters.removedEntries.Add(int64(removed))
	}

	if freed, ok := c.ring.CleanupStep(); ok {
		c.counters.reclaimedData.Add(1)
		c.counters.freedBytes.Add(freed)
	}
}

// reclaim accepts expired or invalid entries whose data nobody reads. Creating entries
// are never accepted. The data of an accepted entry is left to the ring sweep.
func (c *Cache) reclaim(e *model.Entry) bool {
	e.Expire(c.now())
	if !e.Is(model.StateExpired) && !e.Is(model.StateInvalid) {
		return false
	}
	d := c.ring.Get(e.Data())
	if d != nil && d.Clients() > 0 {
		return false
	}
	if d != nil {
		d.Invalidate()
	}
	return true
}

// Metrics is safe to call from any goroutine.
func (c *Cache) Metrics() Metrics {
	m := c.counters.snapshot()
	m.UsedMem = c.mem.Used()
	m.Capacity = c.mem.Capacity()
	m.Entries = int64(c.dict.Len())
	m.Buckets = int64(c.dict.Buckets())
	m.DataNodes = int64(c.ring.Len())
	return m
}
