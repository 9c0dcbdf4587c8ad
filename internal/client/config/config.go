// Package config loads the tripmate CLI runtime settings. Sources are
// applied in order: built-in defaults, then an optional JSON file, then
// command-line flags; later sources win.
package config

import "time"

type Config struct {
	// ServerBaseAddr is the base URL of the tripmate server, e.g.
	// "http://127.0.0.1:8080".
	ServerBaseAddr string
	// DatabaseDSN is the sqlite file backing the local snapshot cache.
	DatabaseDSN string
	// DebounceInterval is how long field edits settle before validation.
	DebounceInterval time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerBaseAddr = "http://127.0.0.1:8080"
	c.DatabaseDSN = "tripmate.db"
	c.DebounceInterval = 300 * time.Millisecond
}

func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
