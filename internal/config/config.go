package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/pwbjournal/internal/common"
	"github.com/dmitrijs2005/pwbjournal/internal/cryptox"
	"github.com/dmitrijs2005/pwbjournal/internal/repositories/blobs"
)

// Config holds runtime settings.
//
// Units: WatchInterval is a time.Duration (e.g., 2*time.Second).
type Config struct {
	DataDir       string
	Backend       string
	WatchInterval time.Duration
	LogLevel      string
	KDFIterations int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = defaultDataDir()
	c.Backend = blobs.BackendSQLite
	c.WatchInterval = 2 * time.Second
	c.LogLevel = "info"
	c.KDFIterations = cryptox.DefaultIterations
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if !blobs.KnownBackend(c.Backend) {
		return fmt.Errorf("backend %q: %w", c.Backend, common.ErrUnknownBackend)
	}
	if c.Backend != blobs.BackendMemory && c.DataDir == "" {
		return fmt.Errorf("data dir must be set for backend %q", c.Backend)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", c.WatchInterval)
	}
	if c.KDFIterations < 1 || c.KDFIterations > cryptox.MaxIterations {
		return fmt.Errorf("kdf iterations must be between 1 and %d, got %d", cryptox.MaxIterations, c.KDFIterations)
	}
	return nil
}

// LoadConfig builds a Config from defaults, then the JSON file named in args
// (if any), then the flags in args. Later sources take precedence.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pwbjournal"
	}
	return filepath.Join(home, ".pwbjournal")
}
