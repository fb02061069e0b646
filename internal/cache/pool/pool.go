// Package pool implements bounded free lists of fixed-size objects, one per node kind.
//
// A Pool is owned by the event loop and is not safe for concurrent use. Unlike sync.Pool
// it never drops objects behind the owner's back and it can refuse to hand out more
// than its limit, which is how allocation failure surfaces to the cache.
package pool

// Pool hands out objects of one kind and takes them back for reuse.
type Pool[T any] struct {
	name  string
	limit int64 // zero means unbounded
	live  int64
	free  []*T
	reset func(*T)
}

// New creates a pool. reset is applied to every object returned by Put and may be nil.
func New[T any](name string, limit int64, reset func(*T)) *Pool[T] {
	return &Pool[T]{name: name, limit: limit, reset: reset}
}

// Get returns a zeroed or recycled object. ok is false when the pool is exhausted.
func (p *Pool[T]) Get() (obj *T, ok bool) {
	if p.limit > 0 && p.live >= p.limit {
		return nil, false
	}
	p.live++

	if n := len(p.free); n > 0 {
		obj = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return obj, true
	}
	return new(T), true
}

// Put returns obj to the pool. The caller must not touch obj afterwards.
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	if p.reset != nil {
		p.reset(obj)
	} else {
		var zero T
		*obj = zero
	}
	p.live--
	p.free = append(p.free, obj)
}

func (p *Pool[T]) Name() string { return p.name }
func (p *Pool[T]) Live() int64  { return p.live }
func (p *Pool[T]) Limit() int64 { return p.limit }
func (p *Pool[T]) Idle() int    { return len(p.free) }
