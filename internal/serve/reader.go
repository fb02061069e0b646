// Package serve streams cached data to clients one chunk at a time.
//
// A Reader never blocks. Each Step offers at most one chunk to its Transport and
// reports what happened, leaving the scheduling of the next Step to the caller.
// Readers may follow data that is still being filled.
package serve

import "github.com/Borislavv/go-ash-httpcache/internal/cache/data"

// WriteResult is the outcome of an all-or-nothing write.
type WriteResult uint8

const (
	// Accepted: the whole chunk was taken.
	Accepted WriteResult = iota
	// Full: nothing was taken, try again later.
	Full
	// Closed: the destination is gone.
	Closed
)

// Transport is a non-blocking byte sink. TryWrite must either take all of p or none of it.
// Chunks are never mutated after linking, so p may be kept but not written to.
type Transport interface {
	TryWrite(p []byte) WriteResult
}

// Status reports the result of one Step.
type Status uint8

const (
	// StatusProgress: one chunk was written; step again.
	StatusProgress Status = iota
	// StatusBlocked: the transport is full; step again once it drains.
	StatusBlocked
	// StatusPending: the writer has not appended the next chunk yet; step again once it does.
	StatusPending
	// StatusDone: everything was written. The reader is released.
	StatusDone
	// StatusClosed: the transport closed. The reader is released.
	StatusClosed
	// StatusAborted: the fill was abandoned. The reader is released.
	StatusAborted
)

var statusNames = [...]string{"progress", "blocked", "pending", "done", "closed", "aborted"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Final reports whether the reader no longer holds its data.
func (s Status) Final() bool { return s >= StatusDone }

// Reader is a cursor over one Data. Not safe for concurrent use.
type Reader struct {
	ring     *data.Ring
	ref      data.Ref
	cur      *data.Element // last written chunk, nil before the first
	attached bool
	sent     int64
	chunks   int
}

// Attach pins the data behind ref and positions a reader before its first chunk.
// ok is false when ref no longer resolves.
func Attach(ring *data.Ring, ref data.Ref) (r *Reader, ok bool) {
	d := ring.Get(ref)
	if d == nil {
		return nil, false
	}
	d.Attach()
	return &Reader{ring: ring, ref: ref, attached: true}, true
}

func (r *Reader) Sent() int64 { return r.sent }
func (r *Reader) Chunks() int { return r.chunks }

// Step offers the next chunk to t.
func (r *Reader) Step(t Transport) Status {
	if !r.attached {
		return StatusClosed
	}
	d := r.ring.Get(r.ref)
	if d == nil {
		r.attached = false
		return StatusAborted
	}
	if d.Invalid() && !d.Complete() {
		r.release(d)
		return StatusAborted
	}

	next := d.Head()
	if r.cur != nil {
		next = r.cur.Next()
	}
	if next == nil {
		if d.Complete() {
			r.release(d)
			return StatusDone
		}
		return StatusPending
	}

	switch t.TryWrite(next.Bytes()) {
	case Accepted:
		r.cur = next
		r.sent += int64(next.Len())
		r.chunks++
		return StatusProgress
	case Full:
		return StatusBlocked
	default:
		r.release(d)
		return StatusClosed
	}
}

// Detach releases the reader early, as on client disconnect. Shared chunks stay in place
// for other readers. Calling it on a released reader does nothing.
func (r *Reader) Detach() {
	if !r.attached {
		return
	}
	if d := r.ring.Get(r.ref); d != nil {
		r.release(d)
		return
	}
	r.attached = false
}

func (r *Reader) release(d *data.Data) {
	d.Release()
	r.attached = false
	r.cur = nil
}
