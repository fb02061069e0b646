// Package cachedtime provides a clock refreshed by a ticker, so hot paths read an atomic
// instead of calling time.Now. Until RunIfEnabled starts it (and after its context is
// done) every call falls through to the real clock.
package cachedtime

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Borislavv/go-ash-httpcache/config"
)

const cacheTimeEach = 10 * time.Millisecond

var (
	nowUnix atomic.Int64
	running atomic.Bool
)

// RunIfEnabled starts the ticker when cfg asks for a cached clock. Only the first caller
// starts it; the ticker stops with ctx.
func RunIfEnabled(ctx context.Context, cfg *config.Cache) {
	if cfg == nil || !cfg.DB.CachedTime {
		return
	}
	if !running.CompareAndSwap(false, true) {
		return
	}
	nowUnix.Store(time.Now().UnixNano())

	go func() {
		ticker := time.NewTicker(cacheTimeEach)
		defer ticker.Stop()
		defer running.Store(false)
		for {
			select {
			case <-ctx.Done():
				return
			case tt := <-ticker.C:
				nowUnix.Store(tt.UnixNano())
			}
		}
	}()
}

func Now() time.Time {
	return time.Unix(0, UnixNano())
}

func UnixNano() int64 {
	if !running.Load() {
		return time.Now().UnixNano()
	}
	return nowUnix.Load()
}

// Unix is the current time in whole seconds, the resolution of entry expiry.
func Unix() int64 {
	return UnixNano() / int64(time.Second)
}

func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
