package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mkravec/tripmate/internal/flagx"
	"github.com/mkravec/tripmate/internal/timex"
)

// JsonConfig is the JSON file shape. timex.Duration accepts both "300ms"
// strings and integer nanoseconds.
type JsonConfig struct {
	ServerBaseAddr   string         `json:"server_base_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	DebounceInterval timex.Duration `json:"debounce_interval"`
}

// parseJson overlays Config with values from the file named by -c/-config.
// No flag means no JSON source. Read or unmarshal errors panic; startup
// cannot proceed on a broken config file.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseAddr != "" {
		cfg.ServerBaseAddr = jc.ServerBaseAddr
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.DebounceInterval.Duration != 0 {
		cfg.DebounceInterval = time.Duration(jc.DebounceInterval.Duration)
	}
}
