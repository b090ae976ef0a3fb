package blobs

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/pwbjournal/internal/common"
)

// MemoryRepository is a process-local Repository. Values are copied on the
// way in and out.
type MemoryRepository struct {
	mu     sync.RWMutex
	items  map[string]Blob
	rev    *revisionSource
	closed bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]Blob), rev: newRevisionSource()}
}

func (r *MemoryRepository) Get(_ context.Context, key string) (Blob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return Blob{}, common.ErrClosed
	}
	b, ok := r.items[key]
	if !ok {
		return Blob{}, nil
	}
	return Blob{Value: bytes.Clone(b.Value), Revision: b.Revision}, nil
}

func (r *MemoryRepository) Set(_ context.Context, key string, value []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", common.ErrClosed
	}
	v := bytes.Clone(value)
	if v == nil {
		v = []byte{}
	}
	rev := r.rev.next()
	r.items[key] = Blob{Value: v, Revision: rev}
	return rev, nil
}

func (r *MemoryRepository) Update(_ context.Context, key string, fn UpdateFunc) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", common.ErrClosed
	}

	cur, ok := r.items[key]
	if ok {
		cur.Value = bytes.Clone(cur.Value)
	}
	value, err := fn(cur)
	if errors.Is(err, ErrNoChange) {
		return cur.Revision, nil
	}
	if err != nil {
		return "", err
	}

	v := bytes.Clone(value)
	if v == nil {
		v = []byte{}
	}
	rev := r.rev.next()
	r.items[key] = Blob{Value: v, Revision: rev}
	return rev, nil
}

func (r *MemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return common.ErrClosed
	}
	delete(r.items, key)
	return nil
}

func (r *MemoryRepository) Revision(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return "", common.ErrClosed
	}
	return r.items[key].Revision, nil
}

func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
