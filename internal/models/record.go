// Package models defines the journal record and settings types shared by the
// store, the blob repositories and the transfer code.
package models

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Kind is the fixed category of a record. It decides which editor
// interprets Props and Blocks.
type Kind string

const (
	KindGrief      Kind = "grief"
	KindMemory     Kind = "memory"
	KindProcessing Kind = "processing"
	KindJournal    Kind = "journal"
)

var ErrUnknownKind = errors.New("unknown record kind")

// Kinds lists every valid kind in display order.
var Kinds = []Kind{KindGrief, KindMemory, KindProcessing, KindJournal}

// legacy names written by earlier versions of the app
var legacyKinds = map[string]Kind{
	"sorg":        KindGrief,
	"minne":       KindMemory,
	"bearbetning": KindProcessing,
}

// ParseKind returns the kind named by s. Legacy room names are mapped to
// their current kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if k.Valid() {
		return k, nil
	}
	if legacy, ok := legacyKinds[s]; ok {
		return legacy, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// PrivacyMode declares whether a record's content is stored encrypted.
type PrivacyMode string

const (
	PrivacyOpen       PrivacyMode = "open"
	PrivacyLock       PrivacyMode = "lock"
	PrivacyRitualLock PrivacyMode = "ritual-lock"
)

func (m PrivacyMode) Valid() bool {
	switch m {
	case PrivacyOpen, PrivacyLock, PrivacyRitualLock:
		return true
	}
	return false
}

// Encrypted reports whether content under this mode is kept as a packet.
func (m PrivacyMode) Encrypted() bool {
	return m == PrivacyLock || m == PrivacyRitualLock
}

// Privacy holds the mode and an optional, non-secret recovery hint.
// It never holds encrypted bytes itself.
type Privacy struct {
	Mode PrivacyMode `json:"mode"`
	Hint string      `json:"hint,omitempty"`
}

// DefaultPrivacy is the privacy of records created without one.
func DefaultPrivacy() Privacy {
	return Privacy{Mode: PrivacyOpen}
}

// Record is one persisted journal entry.
type Record struct {
	// ID is assigned at creation and never changes.
	ID string `json:"id"`

	Kind  Kind   `json:"kind"`
	Title string `json:"title"`

	// Tags may contain duplicates; order carries no meaning.
	Tags []string `json:"tags"`

	// Props holds room-specific fields. The store only shallow-merges it.
	Props map[string]any `json:"props"`

	// Blocks holds free-form editor content for journal records.
	Blocks []any `json:"blocks"`

	Privacy Privacy `json:"privacy"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a copy of r that shares no slices or maps with it.
// Nested values inside Props and Blocks are copied as well.
func (r Record) Clone() Record {
	out := r
	out.Tags = slices.Clone(r.Tags)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	out.Props = cloneMap(r.Props)
	out.Blocks = cloneSlice(r.Blocks)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		return cloneSlice(x)
	default:
		return v
	}
}

// CreateRequest carries the caller-supplied fields of a new record.
// Only Kind is required.
type CreateRequest struct {
	// ID lets the caller choose the identity; empty means generate one.
	ID      string
	Kind    Kind
	Title   string
	Tags    []string
	Props   map[string]any
	Blocks  []any
	Privacy *Privacy
}

// Patch describes a partial update. Nil fields are left unchanged.
//
// Tags and Blocks replace the stored value wholesale when non-nil; an empty
// non-nil slice clears them. Props is shallow-merged key by key.
type Patch struct {
	Kind    *Kind
	Title   *string
	Tags    []string
	Props   map[string]any
	Blocks  []any
	Privacy *Privacy
}

// Apply returns r with p applied. Timestamps are left to the caller.
func (p Patch) Apply(r Record) Record {
	out := r.Clone()
	if p.Kind != nil && p.Kind.Valid() {
		out.Kind = *p.Kind
	}
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Tags != nil {
		out.Tags = slices.Clone(p.Tags)
	}
	if p.Blocks != nil {
		out.Blocks = cloneSlice(p.Blocks)
	}
	if p.Props != nil {
		maps.Copy(out.Props, cloneMap(p.Props))
	}
	if p.Privacy != nil {
		out.Privacy = *p.Privacy
		if !out.Privacy.Mode.Valid() {
			out.Privacy.Mode = PrivacyOpen
		}
	}
	return out
}
