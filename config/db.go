package config

// HashAlgo names the fingerprint function applied to derived keys.
type HashAlgo string

const (
	// HashXXH3 is the default 64-bit xxh3 hash.
	HashXXH3 HashAlgo = "xxh3"

	// HashXXH64 is the classic XXH64 with seed 0.
	HashXXH64 HashAlgo = "xxh64"
)

const (
	DefaultChunkSize      = 16 * 1024
	DefaultInitialBuckets = 16
	DefaultKeyIncrement   = 128
	DefaultMaxBodyBytes   = 16 * 1024
)

type DBCfg struct {
	// SizeBytes is the admission capacity: once cached chunk bytes reach it
	// new fills are refused with FULL.
	SizeBytes int64 `yaml:"size"`

	// ChunkSize is the largest byte chunk kept in one element. Bigger appends are split.
	ChunkSize int `yaml:"chunk_size"`

	// InitialBuckets is the bucket count of the first dictionary generation.
	// Rounded up to a power of two.
	InitialBuckets int `yaml:"initial_buckets"`

	// MaxEntries, MaxData and MaxElements bound the fixed-size object pools.
	// Zero means unbounded. Exhausting a pool degrades requests to BYPASS.
	MaxEntries  int64 `yaml:"max_entries"`
	MaxData     int   `yaml:"max_data"`
	MaxElements int64 `yaml:"max_elements"`

	// KeyIncrement is the step the key buffer grows by.
	KeyIncrement int `yaml:"key_increment"`

	// MaxKeyBytes caps a derived key. Zero means unbounded.
	MaxKeyBytes int `yaml:"max_key_bytes"`

	// BodyMatching lets the body key component see POST/PUT bodies.
	BodyMatching bool `yaml:"body_matching"`

	// MaxBodyBytes is how much of a request body is buffered for key derivation.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// Hash selects the fingerprint function, "xxh3" by default.
	Hash HashAlgo `yaml:"hash"`

	// CachedTime reads expiry timestamps from a ticker-updated clock instead of time.Now.
	CachedTime bool `yaml:"cached_time"`
}
