// Package db holds the entry dictionary: a chained hash table keyed by a 64-bit
// fingerprint and the full derived key, growing by incremental rehash.
//
// Growth never stops the world. While rehashing, the dictionary keeps two tables:
// lookups probe both, inserts go to the new one, and every lookup or housekeeping
// tick migrates exactly one bucket of the old table. Not safe for concurrent use:
// the event loop owns it.
package db

import (
	"math/bits"
	"sync/atomic"

	"github.com/Borislavv/go-ash-httpcache/internal/cache/db/model"
	"github.com/Borislavv/go-ash-httpcache/internal/cache/pool"
)

const minBuckets = 4

type table struct {
	buckets []*model.Entry
	mask    uint64
	used    int
}

func newTable(size int) table {
	return table{buckets: make([]*model.Entry, size), mask: uint64(size - 1)}
}

func (t *table) size() int { return len(t.buckets) }

func (t *table) find(hash uint64, key string) *model.Entry {
	if t.buckets == nil {
		return nil
	}
	for e := t.buckets[hash&t.mask]; e != nil; e = e.Next() {
		if e.Matches(hash, key) {
			return e
		}
	}
	return nil
}

func (t *table) push(e *model.Entry) {
	idx := e.Hash() & t.mask
	e.SetNext(t.buckets[idx])
	t.buckets[idx] = e
	t.used++
}

// Dict maps (hash, key) to entries.
type Dict struct {
	tables    [2]table
	rehashIdx int // -1 while idle
	cursor    int // cleanup position in table 0
	entries   *pool.Pool[model.Entry]
	len       atomic.Int64
}

// NewDict creates a dictionary of at least initialBuckets buckets (rounded up to a power of two).
func NewDict(initialBuckets int, entries *pool.Pool[model.Entry]) *Dict {
	if initialBuckets < minBuckets {
		initialBuckets = minBuckets
	}
	size := 1 << bits.Len(uint(initialBuckets-1))
	return &Dict{
		tables:    [2]table{newTable(size)},
		rehashIdx: -1,
		entries:   entries,
	}
}

// Len is the number of entries. Safe to call from any goroutine.
func (d *Dict) Len() int { return int(d.len.Load()) }

// Buckets is the size of the primary table.
func (d *Dict) Buckets() int { return d.tables[0].size() }

func (d *Dict) IsRehashing() bool { return d.rehashIdx >= 0 }

// Get finds the entry for key and performs one rehash step.
func (d *Dict) Get(hash uint64, key string) *model.Entry {
	if d.IsRehashing() {
		d.RehashStep()
	}
	if e := d.tables[0].find(hash, key); e != nil {
		return e
	}
	if d.IsRehashing() {
		return d.tables[1].find(hash, key)
	}
	return nil
}

// Set inserts a new Creating entry for key. The caller must have checked that key
// is absent. Returns nil when the entry pool is exhausted.
func (d *Dict) Set(hash uint64, key string) *model.Entry {
	if !d.IsRehashing() && d.tables[0].used >= d.tables[0].size() {
		d.tables[1] = newTable(d.tables[0].size() * 2)
		d.rehashIdx = 0
	}

	e, ok := d.entries.Get()
	if !ok {
		return nil
	}
	e.Init(hash, key)

	if d.IsRehashing() {
		d.tables[1].push(e)
	} else {
		d.tables[0].push(e)
	}
	d.len.Add(1)
	return e
}

// RehashStep migrates one bucket of the old table and reports whether more remain.
// Finishing the last bucket promotes the new table.
func (d *Dict) RehashStep() bool {
	if !d.IsRehashing() {
		return false
	}

	src, dst := &d.tables[0], &d.tables[1]
	for e := src.buckets[d.rehashIdx]; e != nil; {
		next := e.Next()
		dst.push(e)
		src.used--
		e = next
	}
	src.buckets[d.rehashIdx] = nil
	d.rehashIdx++

	if d.rehashIdx < src.size() {
		return true
	}
	d.tables[0], d.tables[1] = d.tables[1], table{}
	d.rehashIdx = -1
	return false
}

// CleanupStep visits budget buckets starting at a wrapping cursor and removes every
// entry reclaim accepts. While rehashing, the two new-table buckets fed by each old
// bucket are visited with it. Returns the number of removed entries.
func (d *Dict) CleanupStep(budget int, reclaim func(e *model.Entry) bool) (removed int) {
	for ; budget > 0; budget-- {
		size := d.tables[0].size()
		idx := d.cursor % size
		removed += d.sweep(&d.tables[0], idx, reclaim)
		if d.IsRehashing() {
			removed += d.sweep(&d.tables[1], idx, reclaim)
			removed += d.sweep(&d.tables[1], idx+size, reclaim)
		}
		d.cursor = (idx + 1) % size
	}
	return removed
}

func (d *Dict) sweep(t *table, idx int, reclaim func(e *model.Entry) bool) (removed int) {
	var prev *model.Entry
	for e := t.buckets[idx]; e != nil; {
		next := e.Next()
		if !reclaim(e) {
			prev = e
			e = next
			continue
		}

		if prev == nil {
			t.buckets[idx] = next
		} else {
			prev.SetNext(next)
		}
		t.used--
		d.len.Add(-1)
		d.entries.Put(e)
		removed++
		e = next
	}
	return removed
}
