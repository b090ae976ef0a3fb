package services

import (
	"context"
	"fmt"
)

// HandleExternalChange reacts to a change notification for key, typically
// from another process sharing the storage. An empty key means "unknown,
// possibly everything" and is treated like the records key. Changes to any
// other key, such as the settings, are ignored.
//
// Subscribers are notified only if the persisted records actually differ
// from what this store last read or wrote, so a store never reacts to its
// own writes.
func (s *RecordStore) HandleExternalChange(ctx context.Context, key string) error {
	if key != "" && key != s.key {
		s.log.Debug(ctx, "ignoring change to unrelated key", "changed_key", key)
		return nil
	}

	changed, err := s.refresh(ctx, false)
	if err != nil {
		return err
	}
	if changed {
		s.log.Debug(ctx, "reloaded records after external change")
		s.notify()
	}
	return nil
}

// Reload rereads the persisted records unconditionally and notifies
// subscribers.
func (s *RecordStore) Reload(ctx context.Context) error {
	if _, err := s.refresh(ctx, true); err != nil {
		return err
	}
	s.notify()
	return nil
}

// refresh replaces the in-memory records with the persisted ones when the
// blob revision moved, or always when force is set. On error the in-memory
// records are kept.
func (s *RecordStore) refresh(ctx context.Context, force bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.repo.Get(ctx, s.key)
	if err != nil {
		s.log.Error(ctx, "failed to reload records", "error", err)
		return false, fmt.Errorf("load records: %w", err)
	}
	if !force && s.records != nil && blob.Revision == s.revision {
		return false, nil
	}

	records, undecoded := s.normalize(ctx, blob.Value)
	s.records = records
	s.undecoded = undecoded
	s.revision = blob.Revision
	s.observe(records)
	return true, nil
}
