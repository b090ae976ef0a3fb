package app

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/pwbjournal/internal/common"
	"github.com/dmitrijs2005/pwbjournal/internal/config"
	"github.com/dmitrijs2005/pwbjournal/internal/logging"
	"github.com/dmitrijs2005/pwbjournal/internal/models"
	"github.com/dmitrijs2005/pwbjournal/internal/repositories/blobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Backend = backend
	cfg.DataDir = t.TempDir()
	cfg.WatchInterval = 10 * time.Millisecond
	cfg.KDFIterations = 1000
	return cfg
}

func openApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, logging.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// runApp starts Run and stops it when the test ends.
func runApp(t *testing.T, a *App) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("Run did not stop")
		}
	})
}

// ---- TESTS ----

func TestNew_Memory(t *testing.T) {
	ctx := context.Background()
	a := openApp(t, testConfig(t, blobs.BackendMemory))

	rec, err := a.Records.Create(ctx, models.CreateRequest{Kind: models.KindJournal, Title: "Idag"})
	require.NoError(t, err)
	got, ok := a.Records.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, "Idag", got.Title)

	assert.Equal(t, models.DefaultSettings(), a.Settings.Load(ctx))
	assert.Equal(t, 1000, a.Codec.Iterations)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, "cassette")
	_, err := New(context.Background(), cfg, logging.NewDiscardLogger())
	require.ErrorIs(t, err, common.ErrUnknownBackend)

	cfg = testConfig(t, blobs.BackendSQLite)
	cfg.WatchInterval = 0
	_, err = New(context.Background(), cfg, logging.NewDiscardLogger())
	require.Error(t, err)
}

func TestNew_ReopensPersistedData(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{blobs.BackendSQLite, blobs.BackendBolt, blobs.BackendFile} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)

			a, err := New(ctx, cfg, logging.NewDiscardLogger())
			require.NoError(t, err)
			rec, err := a.Records.Create(ctx, models.CreateRequest{Kind: models.KindMemory, Title: "Kvar"})
			require.NoError(t, err)
			require.NoError(t, a.Settings.Save(ctx, models.Settings{Theme: models.ThemeDark}))
			require.NoError(t, a.Close())

			b := openApp(t, cfg)
			got, ok := b.Records.Get(rec.ID)
			require.True(t, ok)
			assert.Equal(t, "Kvar", got.Title)
			assert.Equal(t, models.ThemeDark, b.Settings.Load(ctx).Theme)
		})
	}
}

// Two handles over the same data dir stand in for two processes.
func TestRun_PropagatesChanges(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{blobs.BackendSQLite, blobs.BackendFile} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			writer := openApp(t, cfg)
			reader := openApp(t, cfg)

			var notified atomic.Int32
			reader.Records.Subscribe(func() { notified.Add(1) })
			runApp(t, reader)

			var rec models.Record
			require.Eventually(t, func() bool {
				if rec.ID == "" {
					r, err := writer.Records.Create(ctx, models.CreateRequest{Kind: models.KindJournal, Title: "Från andra fönstret"})
					if err != nil {
						return false
					}
					rec = r
				} else {
					// the watcher may have started after the first write
					if _, _, err := writer.Records.Update(ctx, rec.ID, models.Patch{}); err != nil {
						return false
					}
				}
				_, ok := reader.Records.Get(rec.ID)
				return ok
			}, 3*time.Second, 50*time.Millisecond)

			assert.Positive(t, notified.Load())
		})
	}
}

func TestRun_IgnoresSettingsWrites(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, blobs.BackendFile)
	writer := openApp(t, cfg)
	reader := openApp(t, cfg)

	var notified atomic.Int32
	reader.Records.Subscribe(func() { notified.Add(1) })
	runApp(t, reader)

	for range 5 {
		require.NoError(t, writer.Settings.Save(ctx, models.Settings{Theme: models.ThemeLight}))
		time.Sleep(20 * time.Millisecond)
	}
	assert.Zero(t, notified.Load())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(t, blobs.BackendMemory)
	cfg.LogLevel = "warn"

	log, err := NewLogger(&buf, cfg)
	require.NoError(t, err)
	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	cfg.LogLevel = "loud"
	_, err = NewLogger(&buf, cfg)
	require.Error(t, err)
}
