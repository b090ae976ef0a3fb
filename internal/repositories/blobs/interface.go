package blobs

import "context"

// Blob is a stored value together with the revision it was written under.
// The zero Blob means the key is absent.
type Blob struct {
	Value    []byte
	Revision string
}

// Exists reports whether the blob was found.
func (b Blob) Exists() bool {
	return b.Revision != ""
}

// Repository stores opaque values under string keys.
type Repository interface {
	// Get returns the value and revision of key, or a zero Blob if absent.
	Get(ctx context.Context, key string) (Blob, error)

	// Set stores value under key and returns the new revision.
	Set(ctx context.Context, key string, value []byte) (string, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Revision returns the current revision of key, or "" if absent.
	Revision(ctx context.Context, key string) (string, error)

	// Close releases the underlying resources.
	Close() error
}

// UpdateFunc computes the new value of a key from its current blob.
// Returning ErrNoChange leaves the blob untouched; any other error aborts
// the update.
type UpdateFunc func(current Blob) ([]byte, error)

// Updater is implemented by repositories that can read and replace a value
// as one atomic step, also against other processes sharing the storage.
type Updater interface {
	Update(ctx context.Context, key string, fn UpdateFunc) (string, error)
}
