package data

import (
	"sync/atomic"

	"github.com/Borislavv/go-ash-httpcache/internal/cache/pool"
)

// Accounter receives chunk byte deltas.
type Accounter interface {
	Add(delta int64)
}

// Ring is the arena of Data nodes linked into one circle.
// Not safe for concurrent use: the event loop owns it.
type Ring struct {
	nodes    []*Data
	free     []uint32
	head     uint32
	len      atomic.Int64
	limit    int // zero means unbounded
	elements *pool.Pool[Element]
	mem      Accounter
}

func NewRing(limit int, elements *pool.Pool[Element], mem Accounter) *Ring {
	return &Ring{limit: limit, elements: elements, mem: mem}
}

// Len is the number of live Data nodes. Safe to call from any goroutine.
func (r *Ring) Len() int { return int(r.len.Load()) }

// New links a fresh Data at the tail. ok is false when the arena is exhausted.
func (r *Ring) New() (ref Ref, ok bool) {
	if r.limit > 0 && r.Len() >= r.limit {
		return Ref{}, false
	}

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.nodes))
		r.nodes = append(r.nodes, &Data{})
	}

	d := r.nodes[idx]
	gen := d.gen + 1
	if gen == 0 {
		gen = 1
	}
	*d = Data{gen: gen, live: true}
	r.link(idx)

	return Ref{idx: idx, gen: gen}, true
}

// Get resolves ref, returning nil when the node was reclaimed.
func (r *Ring) Get(ref Ref) *Data {
	if ref.IsNil() || int(ref.idx) >= len(r.nodes) {
		return nil
	}
	if d := r.nodes[ref.idx]; d.live && d.gen == ref.gen {
		return d
	}
	return nil
}

// Append copies seg1 followed by seg2 into one new chunk linked after the tail.
// Two segments cover a source wrapping around the end of a circular buffer.
func (r *Ring) Append(ref Ref, seg1, seg2 []byte) (*Element, bool) {
	d := r.Get(ref)
	if d == nil {
		return nil, false
	}
	e, ok := r.elements.Get()
	if !ok {
		return nil, false
	}

	n := len(seg1) + len(seg2)
	e.buf = make([]byte, n)
	copy(e.buf, seg1)
	copy(e.buf[len(seg1):], seg2)

	if d.tail == nil {
		d.head = e
	} else {
		d.tail.next = e
	}
	d.tail = e
	d.size += int64(n)
	d.chunks++

	r.mem.Add(int64(n))
	return e, true
}

// CleanupStep looks at the head node only. A reclaimable head is freed; a pinned or
// still valid head is rotated to the tail so garbage behind it gets its turn.
// A head that stays pinned forever is cycled rather than skipped, so newer garbage
// waits one full rotation per step under sustained load.
func (r *Ring) CleanupStep() (freed int64, reclaimed bool) {
	if r.Len() == 0 {
		return 0, false
	}

	idx := r.head
	if !r.nodes[idx].reclaimable() {
		if r.Len() > 1 {
			r.head = r.nodes[idx].next
		}
		return 0, false
	}

	r.unlink(idx)
	return r.destroy(idx), true
}

func (r *Ring) link(idx uint32) {
	d := r.nodes[idx]
	if r.Len() == 0 {
		d.prev, d.next = idx, idx
		r.head = idx
	} else {
		head := r.nodes[r.head]
		tail := head.prev
		d.prev, d.next = tail, r.head
		r.nodes[tail].next = idx
		head.prev = idx
	}
	r.len.Add(1)
}

func (r *Ring) unlink(idx uint32) {
	d := r.nodes[idx]
	if r.Len() > 1 {
		r.nodes[d.prev].next = d.next
		r.nodes[d.next].prev = d.prev
		if r.head == idx {
			r.head = d.next
		}
	}
	r.len.Add(-1)
}

func (r *Ring) destroy(idx uint32) (freed int64) {
	d := r.nodes[idx]
	for e := d.head; e != nil; {
		next := e.next
		freed += int64(len(e.buf))
		r.elements.Put(e)
		e = next
	}
	r.mem.Add(-freed)

	gen := d.gen
	*d = Data{gen: gen}
	r.free = append(r.free, idx)
	return freed
}
