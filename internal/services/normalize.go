package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pwbjournal/internal/models"
)

var errNotObject = errors.New("entry is not a JSON object")

// futureSkew is how far ahead of the clock a stored timestamp may be before
// normalization pulls it back to now.
const futureSkew = time.Minute

// normalize turns whatever is stored under the records key into a valid,
// sorted record list. It never fails: unreadable data yields an empty list.
//
// Entries that cannot be decoded, such as non-objects or unknown kinds, are
// returned as is in undecoded. They are not visible to callers but are
// written back with every mutation, so a write never destroys them. The
// valid entries around them are kept rather than emptying the store.
func (s *RecordStore) normalize(ctx context.Context, data []byte) (records []models.Record, undecoded []json.RawMessage) {
	records = make([]models.Record, 0)
	if len(data) == 0 {
		return records, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Warn(ctx, "stored records are unreadable, starting empty", "error", err)
		return records, nil
	}

	now := s.now().UTC()
	seen := make(map[string]struct{}, len(entries))
	for i, raw := range entries {
		rec, err := decodeRecord(raw)
		if err != nil {
			s.log.Warn(ctx, "keeping undecodable stored record aside", "index", i, "error", err)
			undecoded = append(undecoded, raw)
			continue
		}

		if rec.ID == "" {
			rec.ID = s.newID()
		} else if _, dup := seen[rec.ID]; dup {
			fresh := s.newID()
			s.log.Warn(ctx, "re-identifying duplicate record", "index", i, "id", rec.ID, "new_id", fresh)
			rec.ID = fresh
		}
		seen[rec.ID] = struct{}{}

		if fixTimes(&rec, now) {
			s.log.Warn(ctx, "stored record is dated in the future, clamping to now", "id", rec.ID)
		}
		records = append(records, rec)
	}

	sortRecords(records)
	return records, undecoded
}

// fixTimes fills in missing timestamps, pulls timestamps more than
// futureSkew ahead of now back to now and keeps updatedAt >= createdAt.
// It reports whether anything was clamped.
func fixTimes(rec *models.Record, now time.Time) bool {
	switch {
	case rec.CreatedAt.IsZero() && rec.UpdatedAt.IsZero():
		rec.CreatedAt = now
		rec.UpdatedAt = now
	case rec.CreatedAt.IsZero():
		rec.CreatedAt = rec.UpdatedAt
	case rec.UpdatedAt.IsZero():
		rec.UpdatedAt = rec.CreatedAt
	}

	limit := now.Add(futureSkew)
	clamped := false
	if rec.CreatedAt.After(limit) {
		rec.CreatedAt = now
		clamped = true
	}
	if rec.UpdatedAt.After(limit) {
		rec.UpdatedAt = now
		clamped = true
	}

	if rec.UpdatedAt.Before(rec.CreatedAt) {
		rec.UpdatedAt = rec.CreatedAt
	}
	return clamped
}

// encodeRecords renders the blob: records first, then the undecoded entries
// unchanged.
func encodeRecords(records []models.Record, undecoded []json.RawMessage) ([]byte, error) {
	if len(undecoded) == 0 {
		return json.Marshal(records)
	}
	entries := make([]json.RawMessage, 0, len(records)+len(undecoded))
	for _, r := range records {
		raw, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, raw)
	}
	return json.Marshal(append(entries, undecoded...))
}

// decodeRecord decodes one stored entry field by field, so that a single
// wrong-typed field falls back to its default instead of losing the record.
// Only the kind is mandatory. Missing timestamps are left zero.
func decodeRecord(raw json.RawMessage) (models.Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.Record{}, errNotObject
	}

	var kindName string
	if !decodeField(fields, "kind", &kindName) {
		return models.Record{}, fmt.Errorf("%w: missing", models.ErrUnknownKind)
	}
	kind, err := models.ParseKind(kindName)
	if err != nil {
		return models.Record{}, err
	}

	rec := models.Record{
		Kind:    kind,
		Tags:    []string{},
		Props:   map[string]any{},
		Blocks:  []any{},
		Privacy: models.DefaultPrivacy(),
	}
	decodeField(fields, "id", &rec.ID)
	decodeField(fields, "title", &rec.Title)
	rec.Tags = decodeTags(fields["tags"])
	if !decodeField(fields, "props", &rec.Props) || rec.Props == nil {
		rec.Props = map[string]any{}
	}
	if !decodeField(fields, "blocks", &rec.Blocks) || rec.Blocks == nil {
		rec.Blocks = []any{}
	}
	rec.Privacy = decodePrivacy(fields["privacy"])
	rec.CreatedAt = decodeTime(fields["createdAt"])
	rec.UpdatedAt = decodeTime(fields["updatedAt"])

	return rec, nil
}

// decodeField unmarshals fields[name] into dst and reports success. On
// failure dst is left as it was.
func decodeField[T any](fields map[string]json.RawMessage, name string, dst *T) bool {
	raw, ok := fields[name]
	if !ok {
		return false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

// decodeTags keeps the string elements of a JSON array.
func decodeTags(raw json.RawMessage) []string {
	tags := []string{}
	var items []any
	if raw == nil || json.Unmarshal(raw, &items) != nil {
		return tags
	}
	for _, it := range items {
		if s, ok := it.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags
}

func decodePrivacy(raw json.RawMessage) models.Privacy {
	var p struct {
		Mode any `json:"mode"`
		Hint any `json:"hint"`
	}
	out := models.DefaultPrivacy()
	if raw == nil || json.Unmarshal(raw, &p) != nil {
		return out
	}
	if mode, ok := p.Mode.(string); ok && models.PrivacyMode(mode).Valid() {
		out.Mode = models.PrivacyMode(mode)
	}
	if hint, ok := p.Hint.(string); ok {
		out.Hint = hint
	}
	return out
}

// decodeTime parses an RFC 3339 string. Anything else yields the zero time.
func decodeTime(raw json.RawMessage) time.Time {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
