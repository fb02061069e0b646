package config

// Cache groups configuration of the response cache and the machinery around it.
// Optional subsystems are pointers and are disabled by leaving them nil.
type Cache struct {
	// Enabled turns the cache on. When false every request bypasses it and
	// housekeeping does nothing.
	Enabled bool `yaml:"enabled"`

	DB DBCfg `yaml:"db"`

	// Housekeeping paces rehash and cleanup steps on the event loop.
	// If nil, dictionary growth still happens on lookups but nothing is reclaimed.
	Housekeeping *HousekeepingCfg `yaml:"housekeeping"`

	// Loop sizes the event loop queues.
	Loop LoopCfg `yaml:"loop"`

	// Telemetry enables periodic stat logs. If nil, nothing is logged.
	Telemetry *TelemetryCfg `yaml:"telemetry"`

	// Rules are evaluated in order for every request.
	Rules []RuleCfg `yaml:"rules"`
}
