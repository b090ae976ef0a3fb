package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/pwbjournal/internal/common"
	"github.com/dmitrijs2005/pwbjournal/internal/logging"
	"github.com/dmitrijs2005/pwbjournal/internal/models"
	"github.com/dmitrijs2005/pwbjournal/internal/repositories/blobs"
)

// SettingsStore persists user preferences under their own key. It has no
// in-memory state; every Load reads storage.
type SettingsStore struct {
	repo blobs.Repository
	key  string
	log  logging.Logger
}

func NewSettingsStore(repo blobs.Repository, log logging.Logger) *SettingsStore {
	return &SettingsStore{
		repo: repo,
		key:  common.SettingsKey,
		log:  log.With("component", "settings", "key", common.SettingsKey),
	}
}

// Load returns the stored settings merged over the defaults. Missing,
// unreadable or out-of-range values fall back to their defaults; storage
// failures are logged and yield the defaults.
func (s *SettingsStore) Load(ctx context.Context) models.Settings {
	settings := models.DefaultSettings()

	blob, err := s.repo.Get(ctx, s.key)
	if err != nil {
		s.log.Error(ctx, "failed to load settings", "error", err)
		return settings
	}
	if !blob.Exists() {
		return settings
	}

	var stored map[string]json.RawMessage
	if err := json.Unmarshal(blob.Value, &stored); err != nil {
		s.log.Warn(ctx, "stored settings are unreadable, using defaults", "error", err)
		return settings
	}

	decodeField(stored, "theme", &settings.Theme)
	decodeField(stored, "language", &settings.Language)
	decodeField(stored, "privacyDefault", &settings.PrivacyDefault)
	if !decodeField(stored, "panicLock", &settings.PanicLock) {
		// written as "paniklas" by earlier versions
		decodeField(stored, "paniklas", &settings.PanicLock)
	}
	return settings.Sanitize()
}

// Save persists s, replacing out-of-range values with their defaults.
func (s *SettingsStore) Save(ctx context.Context, settings models.Settings) error {
	data, err := json.Marshal(settings.Sanitize())
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if _, err := s.repo.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Reset removes the stored settings so the defaults apply again.
func (s *SettingsStore) Reset(ctx context.Context) error {
	if err := s.repo.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	return nil
}
