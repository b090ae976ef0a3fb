package blobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketValues    = []byte("blobs")
	bucketRevisions = []byte("revisions")
)

// BoltRepository implements Repository on a bbolt file. bbolt locks the file
// for a single process; handles inside that process share it freely.
type BoltRepository struct {
	db  *bbolt.DB
	rev *revisionSource
}

// OpenBolt opens (or creates) the bbolt file at path.
func OpenBolt(path string) (*BoltRepository, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketValues, bucketRevisions} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &BoltRepository{db: db, rev: newRevisionSource()}, nil
}

func (r *BoltRepository) Get(_ context.Context, key string) (Blob, error) {
	var b Blob
	err := r.db.View(func(tx *bbolt.Tx) error {
		rev := tx.Bucket(bucketRevisions).Get([]byte(key))
		if rev == nil {
			return nil
		}
		// bbolt memory is only valid inside the transaction
		b.Value = bytes.Clone(tx.Bucket(bucketValues).Get([]byte(key)))
		if b.Value == nil {
			b.Value = []byte{}
		}
		b.Revision = string(rev)
		return nil
	})
	if err != nil {
		return Blob{}, fmt.Errorf("failed to get blob[%s]: %w", key, err)
	}
	return b, nil
}

func (r *BoltRepository) Set(_ context.Context, key string, value []byte) (string, error) {
	if value == nil {
		value = []byte{}
	}
	rev := r.rev.next()
	err := r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketValues).Put([]byte(key), value); err != nil {
			return err
		}
		return tx.Bucket(bucketRevisions).Put([]byte(key), []byte(rev))
	})
	if err != nil {
		return "", fmt.Errorf("failed to set blob[%s]: %w", key, err)
	}
	return rev, nil
}

// Update runs fn inside a bbolt write transaction.
func (r *BoltRepository) Update(_ context.Context, key string, fn UpdateFunc) (string, error) {
	var rev string
	err := r.db.Update(func(tx *bbolt.Tx) error {
		cur := Blob{}
		if stored := tx.Bucket(bucketRevisions).Get([]byte(key)); stored != nil {
			cur.Revision = string(stored)
			cur.Value = bytes.Clone(tx.Bucket(bucketValues).Get([]byte(key)))
			if cur.Value == nil {
				cur.Value = []byte{}
			}
		}

		value, err := fn(cur)
		if errors.Is(err, ErrNoChange) {
			rev = cur.Revision
			return nil
		}
		if err != nil {
			return err
		}
		if value == nil {
			value = []byte{}
		}

		rev = r.rev.next()
		if err := tx.Bucket(bucketValues).Put([]byte(key), value); err != nil {
			return err
		}
		return tx.Bucket(bucketRevisions).Put([]byte(key), []byte(rev))
	})
	if err != nil {
		return "", err
	}
	return rev, nil
}

func (r *BoltRepository) Delete(_ context.Context, key string) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketValues).Delete([]byte(key)); err != nil {
			return err
		}
		return tx.Bucket(bucketRevisions).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob[%s]: %w", key, err)
	}
	return nil
}

func (r *BoltRepository) Revision(_ context.Context, key string) (string, error) {
	var rev string
	err := r.db.View(func(tx *bbolt.Tx) error {
		rev = string(tx.Bucket(bucketRevisions).Get([]byte(key)))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get revision[%s]: %w", key, err)
	}
	return rev, nil
}

func (r *BoltRepository) Close() error {
	return r.db.Close()
}
