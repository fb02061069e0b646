package ashhttpcache

import (
	"context"
	"io"
	"net/http"

	"github.com/Borislavv/go-ash-httpcache/config"
	"github.com/Borislavv/go-ash-httpcache/internal/cache"
	"github.com/Borislavv/go-ash-httpcache/internal/loop"
	"github.com/Borislavv/go-ash-httpcache/internal/proxy"
	"github.com/Borislavv/go-ash-httpcache/internal/shared/cachedtime"
	"github.com/Borislavv/go-ash-httpcache/internal/telemetry"
	"github.com/rs/zerolog"
)

type AshHTTPCache interface {
	Middleware(next http.Handler) http.Handler
	Exec(ctx context.Context, fn func(c *cache.Cache)) error
	Metrics() Metrics
	telemetry.Logger
	io.Closer
}

// Metrics joins engine and event loop counters.
type Metrics struct {
	Cache cache.Metrics `json:"cache"`
	Loop  loop.Metrics  `json:"loop"`
}

type Cache struct {
	telemetry.Logger
	engine *cache.Cache
	loop   *loop.Loop
	proxy  *proxy.Middleware
	cls    context.CancelFunc
}

var _ AshHTTPCache = (*Cache)(nil)

func New(ctx context.Context, cfg *config.Cache, logger zerolog.Logger) (*Cache, error) {
	engine, err := cache.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	cachedtime.RunIfEnabled(ctx, cfg)
	eventLoop := loop.New(ctx, cfg, engine, logger)
	telemeter := telemetry.New(ctx, cfg, logger, engine, eventLoop)

	return &Cache{
		Logger: telemeter,
		engine: engine,
		loop:   eventLoop,
		proxy:  proxy.New(cfg, engine, eventLoop, logger),
		cls:    cancel,
	}, nil
}

// Middleware caches responses of next according to the configured rules.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	return c.proxy.Handler(next)
}

// Exec runs fn on the event loop, the only goroutine allowed to touch the engine.
func (c *Cache) Exec(ctx context.Context, fn func(c *cache.Cache)) error {
	return c.loop.Exec(ctx, fn)
}

func (c *Cache) Metrics() Metrics {
	return Metrics{Cache: c.engine.Metrics(), Loop: c.loop.Metrics()}
}

// Close stops background workers and waits for the event loop to end open streams.
func (c *Cache) Close() error {
	c.cls()
	<-c.loop.Done()
	return nil
}
