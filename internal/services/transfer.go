package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pwbjournal/internal/common"
	"github.com/dmitrijs2005/pwbjournal/internal/models"
)

// ExportOne renders the record with id as indented JSON, suitable for
// ImportOneFromText. Locked records are exported as stored: their encrypted
// content stays encrypted.
func (s *RecordStore) ExportOne(id string) ([]byte, bool) {
	rec, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	// stored records were JSON-encoded once already
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		s.log.Error(context.Background(), "failed to export record", "id", id, "error", err)
		return nil, false
	}
	return data, true
}

// ImportOneFromText adds the record described by text as a new record.
//
// The imported record always gets a fresh id, so importing the same text
// twice yields two records. Its createdAt is kept when it parses and is not
// in the future; updatedAt is the import time.
func (s *RecordStore) ImportOneFromText(ctx context.Context, text string) (models.Record, error) {
	rec, err := decodeRecord(json.RawMessage(strings.TrimSpace(text)))
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", common.ErrMalformedImport, err)
	}

	createdAt := rec.CreatedAt
	rec.ID = ""
	return s.insert(ctx, rec, createdAt)
}
