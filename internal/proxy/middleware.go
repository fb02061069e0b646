// Package proxy puts the cache in front of an http.Handler.
//
// CREATE responses are recorded while they stream to the client. HIT responses are
// replayed byte for byte on the hijacked client connection. WAIT, FULL and BYPASS go
// to the next handler untouched, and so does every method other than GET (or POST and PUT
// with body matching).
package proxy

import (
	"context"
	"net"
	"net/http"

	"github.com/Borislavv/go-ash-httpcache/config"
	"github.com/Borislavv/go-ash-httpcache/internal/cache"
	"github.com/Borislavv/go-ash-httpcache/internal/httpview"
	"github.com/Borislavv/go-ash-httpcache/internal/loop"
	"github.com/Borislavv/go-ash-httpcache/internal/serve"
	"github.com/Borislavv/go-ash-httpcache/internal/shared/cachedtime"
	"github.com/rs/zerolog"
)

// Executor runs closures on the event loop and streams readers from it.
type Executor interface {
	Exec(ctx context.Context, fn func(c *cache.Cache)) error
	Stream(r *serve.Reader, t serve.Transport, onEnd func(serve.Status)) bool
	Wake()
}

var _ Executor = (*loop.Loop)(nil)

type Middleware struct {
	engine       *cache.Cache
	loop         Executor
	logger       zerolog.Logger
	maxBody      int64
	bodyMatching bool
	writeQueue   int
	noWait       bool
}

func New(cfg *config.Cache, engine *cache.Cache, l Executor, logger zerolog.Logger) *Middleware {
	return &Middleware{
		engine:       engine,
		loop:         l,
		logger:       logger,
		maxBody:      cfg.DB.MaxBodyBytes,
		bodyMatching: cfg.DB.BodyMatching,
		writeQueue:   cfg.Loop.WriteQueue,
		noWait:       cfg.Loop.NoWait,
	}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.engine.Enabled() || !m.storable(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		view, err := httpview.New(r, m.maxBody)
		if err != nil || view.Truncated() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := cache.NewCtx(0)
		if err = m.engine.Match(ctx, view); err != nil {
			m.logger.Debug().Err(err).Str("target", view.Target()).Msg("[proxy] key derivation failed, bypassing")
			next.ServeHTTP(w, r)
			return
		}

		var (
			status cache.Status
			tr     *connTransport
		)
		err = m.loop.Exec(r.Context(), func(c *cache.Cache) {
			status = c.Begin(ctx)
			if status != cache.StatusHit {
				return
			}
			reader, ok := serve.Attach(c.Ring(), ctx.Data())
			if !ok {
				status = cache.StatusBypass
				return
			}
			tr = newConnTransport(m.writeQueue)
			if !m.loop.Stream(reader, tr, tr.onEnd) {
				reader.Detach()
				tr, status = nil, cache.StatusBypass
			}
		})
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		switch status {
		case cache.StatusHit:
			if m.hit(w, tr) {
				return
			}
			next.ServeHTTP(w, r)
		case cache.StatusCreate:
			m.create(w, r, next, ctx)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// storable reports whether a response to method carries a full body that may fill the
// cache or be replayed from it. HEAD never does.
func (m *Middleware) storable(method string) bool {
	switch method {
	case http.MethodGet:
		return true
	case http.MethodPost, http.MethodPut:
		return m.bodyMatching
	default:
		return false
	}
}

// hit replays the cached response on the raw connection. It returns false when the
// connection cannot be hijacked; the stream is dropped and the caller serves upstream.
func (m *Middleware) hit(w http.ResponseWriter, tr *connTransport) bool {
	conn, brw, err := http.NewResponseController(w).Hijack()
	if err != nil {
		tr.close()
		m.loop.Wake()
		<-tr.end
		return false
	}
	defer closeConn(conn)

	start := cachedtime.Now()
	status, err := tr.drain(brw.Writer, m.noWait, m.loop.Wake)
	if err != nil || status != serve.StatusDone {
		m.logger.Debug().
			Err(err).
			Str("status", status.String()).
			Dur("elapsed", cachedtime.Since(start)).
			Msg("[proxy] cached response not fully served")
	}
	return true
}

// create forwards to next while recording the response into the fill.
func (m *Middleware) create(w http.ResponseWriter, r *http.Request, next http.Handler, ctx *cache.Ctx) {
	bg := context.WithoutCancel(r.Context())
	rec := newRecorder(w, func(p []byte) error {
		var uerr error
		if err := m.loop.Exec(bg, func(c *cache.Cache) { uerr = c.Update(ctx, p, nil) }); err != nil {
			return err
		}
		return uerr
	})

	done := false
	defer func() {
		if done {
			return
		}
		_ = m.loop.Exec(bg, func(c *cache.Cache) { _ = c.Abort(ctx) })
	}()

	next.ServeHTTP(rec, r)

	cacheable := rec.Cacheable()
	_ = m.loop.Exec(bg, func(c *cache.Cache) {
		if cacheable {
			_ = c.Finish(ctx)
		} else {
			_ = c.Abort(ctx)
		}
	})
	done = true
}

func closeConn(conn net.Conn) {
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}
	_ = conn.Close()
}
