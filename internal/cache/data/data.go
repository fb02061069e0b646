// Package data keeps cached response bytes.
//
// A Data is an append-only chain of immutable chunks shared by one writer and any
// number of readers. Every live Data sits in one circular ring owned by the event loop,
// regardless of which entry points at it, so the cleanup sweep can reach all of them.
// Data nodes live in an arena and are addressed by generation-checked Ref handles:
// a stale Ref to a reclaimed node resolves to nil instead of to its successor.
package data

// Ref addresses a Data. The zero Ref addresses nothing.
type Ref struct {
	idx uint32
	gen uint32
}

func (r Ref) IsNil() bool { return r.gen == 0 }

// Element is one immutable chunk. next is only ever set once, by the writer.
type Element struct {
	buf  []byte
	next *Element
}

func (e *Element) Bytes() []byte  { return e.buf }
func (e *Element) Len() int       { return len(e.buf) }
func (e *Element) Next() *Element { return e.next }

// Data is a response body in the making or made.
type Data struct {
	clients  uint32
	invalid  bool
	complete bool
	head     *Element
	tail     *Element
	size     int64
	chunks   int

	gen        uint32
	prev, next uint32 // ring links (arena indices)
	live       bool
}

func (d *Data) Clients() uint32 { return d.clients }
func (d *Data) Invalid() bool   { return d.invalid }
func (d *Data) Complete() bool  { return d.complete }
func (d *Data) Head() *Element  { return d.head }
func (d *Data) Size() int64     { return d.size }
func (d *Data) Chunks() int     { return d.chunks }

// Attach pins d for one more reader.
func (d *Data) Attach() { d.clients++ }

// Release unpins d for one reader.
func (d *Data) Release() {
	if d.clients > 0 {
		d.clients--
	}
}

// Invalidate marks d as garbage once nobody reads it.
func (d *Data) Invalidate() { d.invalid = true }

// MarkComplete records that the writer appended the last chunk.
func (d *Data) MarkComplete() { d.complete = true }

// reclaimable is the only condition under which d may be freed.
func (d *Data) reclaimable() bool { return d.invalid && d.clients == 0 }
