// Package services contains the journal's stateful services: the record
// store, which persists all records as one JSON array under a single blob
// key, and the settings store.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/pwbjournal/internal/common"
	"github.com/dmitrijs2005/pwbjournal/internal/logging"
	"github.com/dmitrijs2005/pwbjournal/internal/models"
	"github.com/dmitrijs2005/pwbjournal/internal/repositories/blobs"
	"github.com/google/uuid"
)

// RecordStore owns the records persisted under one blob key.
//
// Reads (List, Get, ExportOne, Count) are served from memory. Mutations
// re-read the persisted blob, apply the change, write the whole array back
// and only then notify subscribers, on the calling goroutine.
//
// On backends implementing blobs.Updater the re-read and the write are
// atomic, so writers in other processes never lose each other's changes.
// On the file backend the last write wins.
type RecordStore struct {
	repo  blobs.Repository
	key   string
	log   logging.Logger
	now   func() time.Time
	newID func() string

	mu        sync.RWMutex
	records   []models.Record   // updatedAt descending
	undecoded []json.RawMessage // stored entries kept aside by normalize
	revision  string            // blob revision records were read from or written as
	last      time.Time         // newest timestamp handed out or seen

	subscribers
}

// Option configures a RecordStore.
type Option func(*RecordStore)

// WithKey overrides the blob key (common.RecordsKey by default).
func WithKey(key string) Option {
	return func(s *RecordStore) { s.key = key }
}

func WithLogger(l logging.Logger) Option {
	return func(s *RecordStore) { s.log = l }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *RecordStore) { s.now = now }
}

// WithIDGenerator replaces the UUID generator used for new records.
func WithIDGenerator(gen func() string) Option {
	return func(s *RecordStore) { s.newID = gen }
}

// NewRecordStore loads and normalizes the persisted records. Malformed data
// never fails construction; only repository errors do.
func NewRecordStore(ctx context.Context, repo blobs.Repository, opts ...Option) (*RecordStore, error) {
	s := &RecordStore{
		repo:  repo,
		key:   common.RecordsKey,
		log:   logging.NewDiscardLogger(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "records", "key", s.key)

	if _, err := s.refresh(ctx, true); err != nil {
		return nil, err
	}
	return s, nil
}

// Key is the blob key this store persists to.
func (s *RecordStore) Key() string {
	return s.key
}

// List returns all records, most recently updated first. With kinds given,
// only records of those kinds are returned.
func (s *RecordStore) List(kinds ...models.Kind) []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, 0, len(s.records))
	for _, r := range s.records {
		if len(kinds) > 0 && !slices.Contains(kinds, r.Kind) {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

// Get looks a record up by id.
func (s *RecordStore) Get(id string) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOf(s.records, id); i >= 0 {
		return s.records[i].Clone(), true
	}
	return models.Record{}, false
}

// Count returns the number of records per kind. Every kind is present.
func (s *RecordStore) Count() map[models.Kind]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.Kind]int, len(models.Kinds))
	for _, k := range models.Kinds {
		out[k] = 0
	}
	for _, r := range s.records {
		out[r.Kind]++
	}
	return out
}

// Filter selects records by kind and by updatedAt range. Empty Kinds means
// every kind; a zero From or To leaves that end open. Both ends are
// inclusive.
type Filter struct {
	Kinds []models.Kind
	From  time.Time
	To    time.Time
}

// Match reports whether r passes the filter.
func (f Filter) Match(r models.Record) bool {
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, r.Kind) {
		return false
	}
	if !f.From.IsZero() && r.UpdatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.UpdatedAt.After(f.To) {
		return false
	}
	return true
}

// CountFiltered returns how many records match f.
func (s *RecordStore) CountFiltered(f Filter) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.records {
		if f.Match(r) {
			n++
		}
	}
	return n
}

// Create inserts a new record and returns it fully populated. Missing
// fields get their defaults: empty title, tags, props and blocks, and open
// privacy. A caller-chosen ID must not be taken yet.
func (s *RecordStore) Create(ctx context.Context, req models.CreateRequest) (models.Record, error) {
	if !req.Kind.Valid() {
		return models.Record{}, fmt.Errorf("%w: %q", models.ErrUnknownKind, req.Kind)
	}

	rec := models.Record{
		ID:      req.ID,
		Kind:    req.Kind,
		Title:   req.Title,
		Tags:    req.Tags,
		Props:   req.Props,
		Blocks:  req.Blocks,
		Privacy: models.DefaultPrivacy(),
	}
	if req.Privacy != nil && req.Privacy.Mode.Valid() {
		rec.Privacy = *req.Privacy
	}

	return s.insert(ctx, rec, time.Time{})
}

// insert stamps rec, puts it in front and persists. A zero createdAt means
// "now"; rec.ID empty means generate one.
func (s *RecordStore) insert(ctx context.Context, rec models.Record, createdAt time.Time) (models.Record, error) {
	err := s.mutate(ctx, func(records []models.Record) ([]models.Record, bool, error) {
		if rec.ID == "" {
			rec.ID = s.newID()
		}
		if indexOf(records, rec.ID) >= 0 {
			return nil, false, fmt.Errorf("record %s: %w", rec.ID, common.ErrAlreadyExists)
		}

		now := s.stamp(records)
		rec.UpdatedAt = now
		rec.CreatedAt = now
		if !createdAt.IsZero() && createdAt.Before(now) {
			rec.CreatedAt = createdAt
		}
		rec = rec.Clone()
		return append([]models.Record{rec.Clone()}, records...), true, nil
	})
	if err != nil {
		return models.Record{}, err
	}
	return rec, nil
}

// Update applies patch to the record with id. It reports false, without an
// error, when no such record exists. UpdatedAt always advances, even when
// the patch changes nothing visible.
func (s *RecordStore) Update(ctx context.Context, id string, patch models.Patch) (models.Record, bool, error) {
	if patch.Kind != nil && !patch.Kind.Valid() {
		return models.Record{}, false, fmt.Errorf("%w: %q", models.ErrUnknownKind, *patch.Kind)
	}

	var updated models.Record
	var found bool
	err := s.mutate(ctx, func(records []models.Record) ([]models.Record, bool, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, false, nil
		}
		found = true

		updated = patch.Apply(records[i])
		updated.UpdatedAt = s.stamp(records)
		records[i] = updated
		return records, true, nil
	})
	if err != nil || !found {
		return models.Record{}, false, err
	}
	return updated.Clone(), true, nil
}

// Remove deletes the record with id for good. It reports whether a record
// was removed.
func (s *RecordStore) Remove(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.mutate(ctx, func(records []models.Record) ([]models.Record, bool, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, false, nil
		}
		removed = true
		return slices.Delete(records, i, i+1), true, nil
	})
	return removed, err
}

// Clear deletes every record, including stored entries the store could not
// decode. The blob becomes an empty array.
func (s *RecordStore) Clear(ctx context.Context) error {
	return s.write(ctx, false, func([]models.Record) ([]models.Record, bool, error) {
		return []models.Record{}, true, nil
	})
}

type mutateFunc func([]models.Record) ([]models.Record, bool, error)

// mutate runs fn over the freshest persisted records and writes the result
// back when fn reports a change. On backends that support it the read and
// the write are one atomic step. Subscribers are notified after the lock is
// released.
func (s *RecordStore) mutate(ctx context.Context, fn mutateFunc) error {
	return s.write(ctx, true, fn)
}

// write is mutate with control over the undecoded entries: they are carried
// over into the new blob only with keepUndecoded.
func (s *RecordStore) write(ctx context.Context, keepUndecoded bool, fn mutateFunc) error {
	s.mu.Lock()

	var next []models.Record
	var nextUndecoded []json.RawMessage
	rev, err := blobs.Update(ctx, s.repo, s.key, func(cur blobs.Blob) ([]byte, error) {
		records, undecoded := s.recordsAt(ctx, cur)
		out, changed, err := fn(records)
		if err != nil {
			return nil, err
		}
		if !changed {
			return nil, blobs.ErrNoChange
		}
		sortRecords(out)
		if !keepUndecoded {
			undecoded = nil
		}

		data, err := encodeRecords(out, undecoded)
		if err != nil {
			return nil, fmt.Errorf("encode records: %w", err)
		}
		next, nextUndecoded = out, undecoded
		return data, nil
	})
	if err != nil || next == nil {
		s.mu.Unlock()
		return err
	}

	s.records = next
	s.undecoded = nextUndecoded
	s.revision = rev
	s.observe(next)
	s.mu.Unlock()

	s.notify()
	return nil
}

// recordsAt returns a private copy of the records stored in blob, along
// with its undecoded entries. When the blob is still at the revision held in
// memory the cached records are reused, which keeps ids assigned during
// normalization stable.
// Caller must hold s.mu.
func (s *RecordStore) recordsAt(ctx context.Context, blob blobs.Blob) ([]models.Record, []json.RawMessage) {
	if blob.Revision == s.revision && s.records != nil {
		return cloneRecords(s.records), slices.Clone(s.undecoded)
	}
	s.log.Debug(ctx, "records changed since last read", "revision", blob.Revision)
	return s.normalize(ctx, blob.Value)
}

// stamp returns the current time, nudged forward so it is strictly after
// every timestamp the store has handed out or loaded.
// Caller must hold s.mu.
func (s *RecordStore) stamp(records []models.Record) time.Time {
	s.observe(records)
	now := s.now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

// observe raises s.last to the newest updatedAt in records.
func (s *RecordStore) observe(records []models.Record) {
	for _, r := range records {
		if r.UpdatedAt.After(s.last) {
			s.last = r.UpdatedAt
		}
	}
}

func indexOf(records []models.Record, id string) int {
	return slices.IndexFunc(records, func(r models.Record) bool { return r.ID == id })
}

func sortRecords(records []models.Record) {
	slices.SortStableFunc(records, func(a, b models.Record) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
}

func cloneRecords(records []models.Record) []models.Record {
	out := make([]models.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
