// Package config builds the runtime configuration of the journal core.
//
// Values are layered, later layers winning:
//
//  1. defaults from (*Config).LoadDefaults,
//  2. a JSON file passed with -c or -config,
//  3. flags.
//
// Flags other than the ones below are ignored, so an embedding program can
// define its own on the same command line:
//
//	-d string    data directory
//	-b string    storage backend: sqlite, bolt, file or memory
//	-i duration  external change poll interval, e.g. 2s or 500ms
//	-l string    log level: debug, info, warn or error
//	-k int       PBKDF2 iterations for newly encrypted packets
//
// The JSON file may set any subset of the fields. Durations are timex.Duration
// values, either "2s"-style strings or integer nanoseconds:
//
//	{
//	  "data_dir": "/home/me/.pwbjournal",
//	  "backend": "file",
//	  "watch_interval": "500ms",
//	  "log_level": "debug",
//	  "kdf_iterations": 200000
//	}
//
// Environment variables are not consulted.
package config
