package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/pwbjournal/internal/logging"
	"github.com/dmitrijs2005/pwbjournal/internal/repositories/blobs"
	"github.com/fsnotify/fsnotify"
)

// DirWatcher reports changes to a FileRepository directory as they happen,
// using OS file notifications.
type DirWatcher struct {
	dir string
	log logging.Logger
}

func NewDirWatcher(dir string, log logging.Logger) *DirWatcher {
	return &DirWatcher{dir: dir, log: log.With("component", "dirwatcher", "dir", dir)}
}

// Run watches the directory until ctx is cancelled. Files are mapped back to
// their keys; files that do not map to a key are reported as "". Hidden
// files, such as in-flight atomic writes, are skipped.
func (w *DirWatcher) Run(ctx context.Context, fn func(key string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			key, ok := w.keyFor(ev)
			if !ok {
				continue
			}
			w.log.Debug(ctx, "storage file changed", "file", ev.Name, "op", ev.Op.String(), "key", key)
			fn(key)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn(ctx, "file watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// keyFor maps an event to the key to report, or false to skip it.
func (w *DirWatcher) keyFor(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return "", false
	}

	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return "", false
	}
	key, ok := blobs.KeyFromFileName(name)
	if !ok {
		return "", true
	}
	return key, true
}
