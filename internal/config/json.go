package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/pwbjournal/internal/flagx"
	"github.com/dmitrijs2005/pwbjournal/internal/timex"
)

// JsonConfig is a DTO used only for JSON unmarshalling. Pointer fields let
// a file override a subset of the defaults.
type JsonConfig struct {
	DataDir       *string         `json:"data_dir"`
	Backend       *string         `json:"backend"`
	WatchInterval *timex.Duration `json:"watch_interval"`
	LogLevel      *string         `json:"log_level"`
	KDFIterations *int            `json:"kdf_iterations"`
}

// parseJson overlays cfg with the JSON file named by -c/-config in args.
// Without such a flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.DataDir != nil {
		cfg.DataDir = *jc.DataDir
	}
	if jc.Backend != nil {
		cfg.Backend = *jc.Backend
	}
	if jc.WatchInterval != nil {
		cfg.WatchInterval = jc.WatchInterval.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	if jc.KDFIterations != nil {
		cfg.KDFIterations = *jc.KDFIterations
	}
	return nil
}
