package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/pwbjournal/internal/flagx"
)

// parseFlags populates cfg from the flags it knows in args. Other flags are
// filtered out first, so the host program may define its own.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, "d", "b", "i", "l", "k")

	fs := flag.NewFlagSet("pwbjournal", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "storage backend (sqlite, bolt, file, memory)")
	fs.DurationVar(&cfg.WatchInterval, "i", cfg.WatchInterval, "external change poll interval, e.g. 2s")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.IntVar(&cfg.KDFIterations, "k", cfg.KDFIterations, "PBKDF2 iterations")

	return fs.Parse(args)
}
