package blobs

import (
	"context"
	"errors"
)

// ErrNoChange is returned by an UpdateFunc that has nothing to write.
var ErrNoChange = errors.New("no change")

// Update applies fn to key and returns the resulting revision. If fn
// returns ErrNoChange the current revision is returned with a nil error.
//
// The step is atomic when repo implements Updater. Otherwise it falls back
// to Get followed by Set, and a concurrent writer may be overwritten.
func Update(ctx context.Context, repo Repository, key string, fn UpdateFunc) (string, error) {
	if u, ok := repo.(Updater); ok {
		return u.Update(ctx, key, fn)
	}

	cur, err := repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	value, err := fn(cur)
	if errors.Is(err, ErrNoChange) {
		return cur.Revision, nil
	}
	if err != nil {
		return "", err
	}
	return repo.Set(ctx, key, value)
}
