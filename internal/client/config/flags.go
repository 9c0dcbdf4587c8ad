package config

import (
	"flag"
	"os"
	"time"

	"github.com/mkravec/tripmate/internal/flagx"
)

// parseFlags overlays Config with command-line flags.
//
//	-a string   base URL of the tripmate server
//	-d string   sqlite file for the local snapshot cache
//	-b int      edit debounce interval in milliseconds
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseAddr, "a", cfg.ServerBaseAddr, "base URL of the tripmate server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "sqlite file for the local snapshot cache")
	debounceMs := fs.Int("b", int(cfg.DebounceInterval.Milliseconds()), "edit debounce interval (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.DebounceInterval = time.Duration(*debounceMs) * time.Millisecond
}
