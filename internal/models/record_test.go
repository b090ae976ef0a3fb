package models

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "grief", want: KindGrief},
		{in: "memory", want: KindMemory},
		{in: "processing", want: KindProcessing},
		{in: "journal", want: KindJournal},
		{in: "sorg", want: KindGrief},
		{in: "minne", want: KindMemory},
		{in: "bearbetning", want: KindProcessing},
		{in: "", wantErr: true},
		{in: "Journal", wantErr: true},
		{in: "diary", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrivacyMode(t *testing.T) {
	assert.True(t, PrivacyOpen.Valid())
	assert.True(t, PrivacyRitualLock.Valid())
	assert.False(t, PrivacyMode("secret").Valid())

	assert.False(t, PrivacyOpen.Encrypted())
	assert.True(t, PrivacyLock.Encrypted())
	assert.True(t, PrivacyRitualLock.Encrypted())
}

func sampleRecord() Record {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return Record{
		ID:        "r1",
		Kind:      KindMemory,
		Title:     "Sommar",
		Tags:      []string{"y", "z"},
		Props:     map[string]any{"a": float64(1), "b": float64(2), "nested": map[string]any{"k": "v"}},
		Blocks:    []any{map[string]any{"type": "p", "text": "hej"}},
		Privacy:   DefaultPrivacy(),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestRecord_CloneIsDeep(t *testing.T) {
	r := sampleRecord()
	c := r.Clone()
	require.Empty(t, cmp.Diff(r, c))

	c.Tags[0] = "changed"
	c.Props["a"] = "changed"
	c.Props["nested"].(map[string]any)["k"] = "changed"
	c.Blocks[0].(map[string]any)["text"] = "changed"

	assert.Equal(t, "y", r.Tags[0])
	assert.Equal(t, float64(1), r.Props["a"])
	assert.Equal(t, "v", r.Props["nested"].(map[string]any)["k"])
	assert.Equal(t, "hej", r.Blocks[0].(map[string]any)["text"])
}

func TestPatch_PropsShallowMerge(t *testing.T) {
	r := sampleRecord()
	out := Patch{Props: map[string]any{"b": float64(3), "c": float64(4)}}.Apply(r)

	assert.Equal(t, map[string]any{
		"a":      float64(1),
		"b":      float64(3),
		"c":      float64(4),
		"nested": map[string]any{"k": "v"},
	}, out.Props)
	assert.Equal(t, r.Tags, out.Tags, "tags untouched when absent from patch")
	assert.Equal(t, r.Blocks, out.Blocks, "blocks untouched when absent from patch")
}

func TestPatch_NestedPropsAreReplacedNotMerged(t *testing.T) {
	r := sampleRecord()
	out := Patch{Props: map[string]any{"nested": map[string]any{"other": true}}}.Apply(r)
	assert.Equal(t, map[string]any{"other": true}, out.Props["nested"])
}

func TestPatch_TagsAndBlocksReplaced(t *testing.T) {
	r := sampleRecord()

	out := Patch{Tags: []string{"x"}}.Apply(r)
	assert.Equal(t, []string{"x"}, out.Tags)

	out = Patch{Tags: []string{}, Blocks: []any{}}.Apply(r)
	assert.Empty(t, out.Tags)
	assert.NotNil(t, out.Tags)
	assert.Empty(t, out.Blocks)
}

func TestPatch_ScalarsOverwrite(t *testing.T) {
	r := sampleRecord()
	title := "Ny titel"
	kind := KindJournal
	out := Patch{
		Title:   &title,
		Kind:    &kind,
		Privacy: &Privacy{Mode: PrivacyLock, Hint: "mammas gata"},
	}.Apply(r)

	assert.Equal(t, "Ny titel", out.Title)
	assert.Equal(t, KindJournal, out.Kind)
	assert.Equal(t, Privacy{Mode: PrivacyLock, Hint: "mammas gata"}, out.Privacy)
	assert.Equal(t, r.ID, out.ID)
	assert.Equal(t, r.CreatedAt, out.CreatedAt)
}

func TestPatch_InvalidPrivacyModeFallsBackToOpen(t *testing.T) {
	out := Patch{Privacy: &Privacy{Mode: "bogus"}}.Apply(sampleRecord())
	assert.Equal(t, PrivacyOpen, out.Privacy.Mode)
}

func TestPatch_DoesNotAliasInput(t *testing.T) {
	r := sampleRecord()
	tags := []string{"x"}
	out := Patch{Tags: tags}.Apply(r)
	tags[0] = "mutated"
	assert.Equal(t, []string{"x"}, out.Tags)
	assert.Equal(t, []string{"y", "z"}, r.Tags, "source record untouched")
}

func TestSettings_Sanitize(t *testing.T) {
	got := Settings{Theme: "neon", Language: "de", PrivacyDefault: "x", PanicLock: true}.Sanitize()
	assert.Equal(t, Settings{Theme: ThemeSepia, Language: LanguageSwedish, PrivacyDefault: PrivacyOpen, PanicLock: true}, got)

	ok := Settings{Theme: ThemeDark, Language: LanguageEnglish, PrivacyDefault: PrivacyRitualLock}
	assert.Equal(t, ok, ok.Sanitize())
}
