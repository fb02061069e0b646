package config

import "time"

const (
	DefaultHousekeepingRate = 1000
	DefaultCleanupBuckets   = 8
	DefaultTaskQueue        = 1024
	DefaultMaxReaders       = 4096
	DefaultWriteQueue       = 8
	DefaultTelemetryEach    = 5 * time.Second
)

type HousekeepingCfg struct {
	// Rate is how many housekeeping ticks run per second. One tick does one rehash step,
	// one dictionary cleanup step and one ring cleanup step.
	Rate int `yaml:"rate"`

	// CleanupBuckets is how many dictionary buckets one cleanup step visits.
	CleanupBuckets int `yaml:"cleanup_buckets"`
}

func (cfg *HousekeepingCfg) Enabled() bool {
	return cfg != nil
}

type LoopCfg struct {
	// TaskQueue is the buffer of tasks submitted to the event loop.
	TaskQueue int `yaml:"task_queue"`

	// MaxReaders caps concurrently streaming cache readers.
	MaxReaders int `yaml:"max_readers"`

	// WriteQueue is how many chunks a connection transport holds before reporting full.
	WriteQueue int `yaml:"write_queue"`

	// NoWait flushes every chunk to the connection right away instead of batching.
	NoWait bool `yaml:"no_wait"`
}

type TelemetryCfg struct {
	Interval time.Duration `yaml:"interval"`
}

func (cfg *TelemetryCfg) Enabled() bool {
	return cfg != nil
}
