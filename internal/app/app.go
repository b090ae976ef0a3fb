// Package app wires configuration, storage, the journal services and the
// external change watcher into one handle for embedding applications.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/pwbjournal/internal/config"
	"github.com/dmitrijs2005/pwbjournal/internal/cryptox"
	"github.com/dmitrijs2005/pwbjournal/internal/logging"
	"github.com/dmitrijs2005/pwbjournal/internal/repositories/blobs"
	"github.com/dmitrijs2005/pwbjournal/internal/services"
	"github.com/dmitrijs2005/pwbjournal/internal/watch"
)

// App is an opened journal.
type App struct {
	Records  *services.RecordStore
	Settings *services.SettingsStore
	Codec    *cryptox.Codec

	repo    blobs.Repository
	watcher watch.Source
	log     logging.Logger
}

// NewLogger builds the text logger described by cfg.
func NewLogger(w io.Writer, cfg *config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewTextLogger(w, level), nil
}

// New opens the storage named by cfg and loads the journal from it.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := blobs.Open(ctx, cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Backend, err)
	}

	records, err := services.NewRecordStore(ctx, repo, services.WithLogger(log))
	if err != nil {
		return nil, errors.Join(err, repo.Close())
	}

	a := &App{
		Records:  records,
		Settings: services.NewSettingsStore(repo, log),
		Codec:    cryptox.NewCodec(cfg.KDFIterations),
		repo:     repo,
		log:      log,
	}

	if fr, ok := repo.(*blobs.FileRepository); ok {
		a.watcher = watch.NewDirWatcher(fr.Dir(), log)
	} else {
		a.watcher = watch.NewPoller(repo, cfg.WatchInterval, log, records.Key())
	}

	log.Info(ctx, "journal opened", "backend", cfg.Backend, "dir", cfg.DataDir, "records", len(records.List()))
	return a, nil
}

// Run forwards storage changes made by other processes to the record store
// until ctx is cancelled. Subscribers of Records are notified from the Run
// goroutine.
func (a *App) Run(ctx context.Context) error {
	return a.watcher.Run(ctx, func(key string) {
		if err := a.Records.HandleExternalChange(ctx, key); err != nil {
			a.log.Error(ctx, "failed to apply external change", "key", key, "error", err)
		}
	})
}

// Close releases the storage. Run must have returned before Close is called.
func (a *App) Close() error {
	if err := a.repo.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}

var (
	_ watch.Source = (*watch.Poller)(nil)
	_ watch.Source = (*watch.DirWatcher)(nil)
)
