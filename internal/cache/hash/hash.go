// Package hash collapses derived cache keys into 64-bit fingerprints.
// Both functions use a fixed seed, so fingerprints are stable across runs.
package hash

import (
	"fmt"
	"unsafe"

	"github.com/Borislavv/go-ash-httpcache/config"
	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"
)

// Func maps key bytes to a fingerprint.
type Func func(b []byte) uint64

// XXH3 is the default fingerprint.
func XXH3(b []byte) uint64 { return xxh3.Hash(b) }

// XXH64 is XXH64 with seed 0.
func XXH64(b []byte) uint64 { return xxhash.Sum64(b) }

// ByName resolves a configured algorithm.
func ByName(algo config.HashAlgo) (Func, error) {
	switch algo {
	case config.HashXXH3, "":
		return XXH3, nil
	case config.HashXXH64:
		return XXH64, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownHash, algo)
	}
}

// String hashes s without copying it.
func (f Func) String(s string) uint64 {
	return f(unsafe.Slice(unsafe.StringData(s), len(s)))
}
