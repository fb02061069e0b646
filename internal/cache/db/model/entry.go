package model

import "github.com/Borislavv/go-ash-httpcache/internal/cache/data"

// State of a cache entry.
type State uint8

const (
	// StateCreating: one request is filling the entry's data; others must wait.
	StateCreating State = iota
	// StateValid: data is complete and may be served until expireAt.
	StateValid
	// StateExpired: expireAt passed; detected lazily.
	StateExpired
	// StateInvalid: the fill was aborted or rejected.
	StateInvalid
)

var stateNames = [...]string{"creating", "valid", "expired", "invalid"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Entry maps one derived key to its current data.
type Entry struct {
	hash     uint64
	key      string
	state    State
	expireAt int64 // unix seconds, zero means never
	data     data.Ref
	next     *Entry // bucket chain
}

// Init prepares a pooled entry for a new key. The entry starts in StateCreating.
func (e *Entry) Init(hash uint64, key string) {
	*e = Entry{hash: hash, key: key, state: StateCreating}
}

func (e *Entry) Hash() uint64     { return e.hash }
func (e *Entry) Key() string      { return e.key }
func (e *Entry) State() State     { return e.state }
func (e *Entry) ExpireAt() int64  { return e.expireAt }
func (e *Entry) Data() data.Ref   { return e.data }
func (e *Entry) Next() *Entry     { return e.next }
func (e *Entry) SetNext(n *Entry) { e.next = n }
func (e *Entry) Is(s State) bool  { return e.state == s }

// Matches resolves fingerprint collisions by comparing the full key.
func (e *Entry) Matches(hash uint64, key string) bool {
	return e.hash == hash && e.key == key
}

// Bind starts (or restarts) a fill into ref.
func (e *Entry) Bind(ref data.Ref) {
	e.state = StateCreating
	e.expireAt = 0
	e.data = ref
}

// Validate finishes a fill. A zero expireAt never expires.
func (e *Entry) Validate(expireAt int64) {
	e.state = StateValid
	e.expireAt = expireAt
}

func (e *Entry) Invalidate() { e.state = StateInvalid }

// Expire moves a valid entry past its deadline to StateExpired and reports whether it did.
func (e *Entry) Expire(now int64) bool {
	if e.state == StateValid && e.expireAt != 0 && now >= e.expireAt {
		e.state = StateExpired
		return true
	}
	return false
}
