package blobs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/pwbjournal/internal/common"
	"github.com/dmitrijs2005/pwbjournal/internal/filex"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// KnownBackend reports whether name is a backend Open understands.
func KnownBackend(name string) bool {
	switch name {
	case BackendSQLite, BackendBolt, BackendFile, BackendMemory:
		return true
	}
	return false
}

// Open creates the repository for backend, keeping its files under dir.
// The memory backend ignores dir.
func Open(ctx context.Context, backend, dir string) (Repository, error) {
	if !KnownBackend(backend) {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownBackend, backend)
	}
	if backend == BackendMemory {
		return NewMemoryRepository(), nil
	}

	dir, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendSQLite:
		return OpenSQLite(ctx, filepath.Join(dir, "journal.db"))
	case BackendBolt:
		return OpenBolt(filepath.Join(dir, "journal.bolt"))
	default:
		return NewFileRepository(filepath.Join(dir, "blobs"))
	}
}
