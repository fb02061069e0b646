package cache

import (
	"errors"

	"github.com/Borislavv/go-ash-httpcache/internal/cache/data"
	"github.com/Borislavv/go-ash-httpcache/internal/cache/db/model"
)

var (
	// ErrOutOfMemory means a pool, the data arena or the key buffer is exhausted.
	// At request time the request degrades to BYPASS.
	ErrOutOfMemory = errors.New("cache out of memory")
	// ErrInvalidated means the fill behind a context was aborted.
	ErrInvalidated = errors.New("cache data invalidated")
	// ErrNotCreating means Update, Finish or Abort was called on a context that does not own a fill.
	ErrNotCreating = errors.New("cache context is not creating")
)

// Status is the admission outcome for a request.
type Status uint8

const (
	// StatusBypass: do not touch the cache, go upstream.
	StatusBypass Status = iota
	// StatusHit: a valid response is cached; serve it.
	StatusHit
	// StatusCreate: this request owns the fill; feed Update and call Finish or Abort.
	StatusCreate
	// StatusWait: another request is filling the same key.
	StatusWait
	// StatusFull: capacity is exhausted.
	StatusFull
	// StatusDone: the fill was finished or aborted.
	StatusDone
)

var statusNames = [...]string{"BYPASS", "HIT", "CREATE", "WAIT", "FULL", "DONE"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

// Stash is the derived key of one matching rule.
type Stash struct {
	Rule *Rule
	Key  string
	Hash uint64
}

// Ctx follows one request through the cache. It is not safe for concurrent use and
// must be handed to Cache methods only from the event loop.
type Ctx struct {
	stash  []Stash
	status Status
	ttl    uint32
	entry  *model.Entry
	data   data.Ref
}

// NewCtx creates a context whose fill lives ttl seconds once finished.
func NewCtx(ttl uint32) *Ctx {
	return &Ctx{ttl: ttl}
}

func (ctx *Ctx) Status() Status { return ctx.status }
func (ctx *Ctx) Data() data.Ref { return ctx.data }
func (ctx *Ctx) Stash() []Stash { return ctx.stash }
func (ctx *Ctx) TTL() uint32    { return ctx.ttl }

// First is the stash of the first matching rule.
func (ctx *Ctx) First() (Stash, bool) {
	if len(ctx.stash) == 0 {
		return Stash{}, false
	}
	return ctx.stash[0], true
}
