package watch

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/pwbjournal/internal/logging"
	"github.com/dmitrijs2005/pwbjournal/internal/repositories/blobs"
)

var ErrInvalidInterval = errors.New("poll interval must be positive")

// Poller checks the revision of a fixed set of keys on every tick. It works
// with every backend, including those that offer no change notifications.
type Poller struct {
	repo     blobs.Repository
	keys     []string
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger

	last map[string]string
}

func NewPoller(repo blobs.Repository, interval time.Duration, log logging.Logger, keys ...string) *Poller {
	return &Poller{
		repo:     repo,
		keys:     keys,
		interval: interval,
		timeout:  3 * time.Second,
		log:      log.With("component", "poller"),
		last:     make(map[string]string, len(keys)),
	}
}

// Run polls until ctx is cancelled. Revisions present when Run starts are
// taken as the baseline and not reported.
func (p *Poller) Run(ctx context.Context, fn func(key string)) error {
	if p.interval <= 0 {
		return ErrInvalidInterval
	}

	p.poll(ctx, nil)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll(ctx, fn)

		case <-ctx.Done():
			return nil
		}
	}
}

// poll reads every key's revision once and reports the keys that moved.
// A nil fn only records the revisions.
func (p *Poller) poll(ctx context.Context, fn func(key string)) {
	for _, key := range p.keys {
		pctx, cancel := context.WithTimeout(ctx, p.timeout)
		rev, err := p.repo.Revision(pctx, key)
		cancel()

		if err != nil {
			if ctx.Err() == nil {
				p.log.Warn(ctx, "failed to read revision", "key", key, "error", err)
			}
			continue
		}

		prev, seen := p.last[key]
		p.last[key] = rev
		if seen && prev != rev && fn != nil {
			p.log.Debug(ctx, "storage key changed", "key", key, "revision", rev)
			fn(key)
		}
	}
}
