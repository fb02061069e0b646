package config

import (
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
)

var (
	ErrNonPositiveSize = errors.New("db size must be positive")
	ErrUnknownHash     = errors.New("unknown hash algorithm")
	ErrEmptyRuleKey    = errors.New("rule has no key components")
)

// AdjustConfig fills zero values with defaults.
func (cfg *Cache) AdjustConfig() {
	if cfg.DB.ChunkSize <= 0 {
		cfg.DB.ChunkSize = DefaultChunkSize
	}
	if cfg.DB.InitialBuckets <= 0 {
		cfg.DB.InitialBuckets = DefaultInitialBuckets
	}
	if cfg.DB.KeyIncrement <= 0 {
		cfg.DB.KeyIncrement = DefaultKeyIncrement
	}
	if cfg.DB.MaxBodyBytes <= 0 {
		cfg.DB.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.DB.Hash == "" {
		cfg.DB.Hash = HashXXH3
	}

	if cfg.Housekeeping.Enabled() {
		if cfg.Housekeeping.Rate <= 0 {
			cfg.Housekeeping.Rate = DefaultHousekeepingRate
		}
		if cfg.Housekeeping.CleanupBuckets <= 0 {
			cfg.Housekeeping.CleanupBuckets = DefaultCleanupBuckets
		}
	}

	if cfg.Loop.TaskQueue <= 0 {
		cfg.Loop.TaskQueue = DefaultTaskQueue
	}
	if cfg.Loop.MaxReaders <= 0 {
		cfg.Loop.MaxReaders = DefaultMaxReaders
	}
	if cfg.Loop.WriteQueue <= 0 {
		cfg.Loop.WriteQueue = DefaultWriteQueue
	}

	if cfg.Telemetry.Enabled() && cfg.Telemetry.Interval <= 0 {
		cfg.Telemetry.Interval = DefaultTelemetryEach
	}
}

// Validate reports configuration that cannot work at all.
func (cfg *Cache) Validate() error {
	if cfg.DB.SizeBytes <= 0 {
		return ErrNonPositiveSize
	}
	switch cfg.DB.Hash {
	case HashXXH3, HashXXH64:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownHash, cfg.DB.Hash)
	}
	for i, rule := range cfg.Rules {
		if len(rule.Key) == 0 {
			return fmt.Errorf("rule #%d %q: %w", i, rule.Name, ErrEmptyRuleKey)
		}
	}
	return nil
}

func LoadConfig(path string) (*Cache, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Cache
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	if cfg == nil {
		cfg = &Cache{}
	}
	cfg.AdjustConfig()

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	return cfg, nil
}
