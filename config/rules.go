package config

// RuleCfg describes one cache rule.
//
// Key lists key components in order. Supported tokens:
//
//	method, scheme, host, path, query, body,
//	param_<name>, header_<name>, cookie_<name>
//
// Components are concatenated without separators, so the order is the only thing
// telling them apart.
type RuleCfg struct {
	Name string `yaml:"name"`

	// TTL in seconds. Zero means the cached response never expires.
	TTL uint32 `yaml:"ttl"`

	Key []string `yaml:"key"`

	// Match gates the rule. If nil the rule applies to every request.
	Match *MatchCfg `yaml:"match"`
}

// MatchCfg is a conjunction of simple request predicates.
type MatchCfg struct {
	Methods    []string `yaml:"methods"`
	PathPrefix string   `yaml:"path_prefix"`
	Header     string   `yaml:"header"`

	// Unless inverts the whole condition.
	Unless bool `yaml:"unless"`
}
