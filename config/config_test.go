package config

import (
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
enabled: true
db:
  size: 1048576
  chunk_size: 4096
  body_matching: true
  hash: xxh64
housekeeping:
  rate: 200
telemetry:
  interval: 10s
rules:
  - name: static
    ttl: 60
    key: [host, path]
    match:
      methods: [GET, HEAD]
      path_prefix: /static/
  - name: search
    ttl: 0
    key: [method, path, param_q]
`

// TestLoadConfig parses yaml and applies defaults.
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.True(t, cfg.Enabled)
	require.Equal(t, int64(1048576), cfg.DB.SizeBytes)
	require.Equal(t, 4096, cfg.DB.ChunkSize)
	require.True(t, cfg.DB.BodyMatching)
	require.Equal(t, HashXXH64, cfg.DB.Hash)
	require.Equal(t, DefaultInitialBuckets, cfg.DB.InitialBuckets)
	require.Equal(t, DefaultKeyIncrement, cfg.DB.KeyIncrement)

	require.True(t, cfg.Housekeeping.Enabled())
	require.Equal(t, 200, cfg.Housekeeping.Rate)
	require.Equal(t, DefaultCleanupBuckets, cfg.Housekeeping.CleanupBuckets)

	require.True(t, cfg.Telemetry.Enabled())
	require.Equal(t, 10*time.Second, cfg.Telemetry.Interval)

	require.Len(t, cfg.Rules, 2)
	require.Equal(t, uint32(60), cfg.Rules[0].TTL)
	require.Equal(t, []string{"host", "path"}, cfg.Rules[0].Key)
	require.Equal(t, "/static/", cfg.Rules[0].Match.PathPrefix)
	require.Nil(t, cfg.Rules[1].Match)
}

// TestLoadConfig_MissingFile wraps the stat error.
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestLoadConfig_Invalid rejects a config without capacity.
func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: true\n"), 0o600))

	_, err := LoadConfig(path)
	require.ErrorIs(t, err, ErrNonPositiveSize)
}

// TestValidate covers the rejected shapes.
func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Cache
		err  error
	}{
		{"ok", &Cache{DB: DBCfg{SizeBytes: 1, Hash: HashXXH3}}, nil},
		{"zero size", &Cache{DB: DBCfg{Hash: HashXXH3}}, ErrNonPositiveSize},
		{"unknown hash", &Cache{DB: DBCfg{SizeBytes: 1, Hash: "md5"}}, ErrUnknownHash},
		{"empty key", &Cache{DB: DBCfg{SizeBytes: 1, Hash: HashXXH3}, Rules: []RuleCfg{{Name: "r"}}}, ErrEmptyRuleKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.err == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.err)
			}
		})
	}
}

// TestAdjustConfig_OptionalSections leaves nil sections nil.
func TestAdjustConfig_OptionalSections(t *testing.T) {
	cfg := &Cache{}
	cfg.AdjustConfig()

	require.False(t, cfg.Housekeeping.Enabled())
	require.False(t, cfg.Telemetry.Enabled())
	require.Equal(t, DefaultChunkSize, cfg.DB.ChunkSize)
	require.Equal(t, DefaultTaskQueue, cfg.Loop.TaskQueue)
	require.Equal(t, DefaultMaxReaders, cfg.Loop.MaxReaders)
	require.Equal(t, DefaultWriteQueue, cfg.Loop.WriteQueue)
}
