package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/pwbjournal/internal/common"
	"github.com/dmitrijs2005/pwbjournal/internal/models"
	"github.com/dmitrijs2005/pwbjournal/internal/repositories/blobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleExternalChange(t *testing.T) {
	ctx := context.Background()
	repo := blobs.NewMemoryRepository()
	a := newTestStore(t, repo, WithIDGenerator(idSeq("a")))
	b := newTestStore(t, repo, WithIDGenerator(idSeq("b")))

	notifiedA, notifiedB := 0, 0
	a.Subscribe(counter(&notifiedA))
	b.Subscribe(counter(&notifiedB))

	rec, err := a.Create(ctx, models.CreateRequest{Kind: models.KindJournal})
	require.NoError(t, err)
	assert.Equal(t, 1, notifiedA)

	// own write
	require.NoError(t, a.HandleExternalChange(ctx, common.RecordsKey))
	assert.Equal(t, 1, notifiedA)

	// unrelated key
	require.NoError(t, b.HandleExternalChange(ctx, common.SettingsKey))
	assert.Zero(t, notifiedB)
	_, ok := b.Get(rec.ID)
	assert.False(t, ok)

	// unknown key
	require.NoError(t, b.HandleExternalChange(ctx, ""))
	assert.Equal(t, 1, notifiedB)
	_, ok = b.Get(rec.ID)
	assert.True(t, ok)

	// nothing new since
	require.NoError(t, b.HandleExternalChange(ctx, common.RecordsKey))
	assert.Equal(t, 1, notifiedB)
}

func TestHandleExternalChange_SettingsWriteDoesNotReload(t *testing.T) {
	ctx := context.Background()
	repo := blobs.NewMemoryRepository()
	s := newTestStore(t, repo)
	settings := NewSettingsStore(repo, testLogger())

	notified := 0
	s.Subscribe(counter(&notified))

	require.NoError(t, settings.Save(ctx, models.Settings{Theme: models.ThemeDark}))
	require.NoError(t, s.HandleExternalChange(ctx, common.SettingsKey))
	require.NoError(t, s.HandleExternalChange(ctx, ""))
	assert.Zero(t, notified)
}

func TestHandleExternalChange_KeyRemoved(t *testing.T) {
	ctx := context.Background()
	repo := blobs.NewMemoryRepository()
	s := newTestStore(t, repo)
	_, err := s.Create(ctx, models.CreateRequest{Kind: models.KindJournal})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, common.RecordsKey))
	require.NoError(t, s.HandleExternalChange(ctx, common.RecordsKey))
	assert.Empty(t, s.List())
}

func TestHandleExternalChange_CustomKey(t *testing.T) {
	ctx := context.Background()
	repo := blobs.NewMemoryRepository()
	s := newTestStore(t, repo, WithKey("other:pages"))
	peer := newTestStore(t, repo)

	_, err := peer.Create(ctx, models.CreateRequest{Kind: models.KindJournal})
	require.NoError(t, err)

	notified := 0
	s.Subscribe(counter(&notified))
	require.NoError(t, s.HandleExternalChange(ctx, common.RecordsKey))
	require.NoError(t, s.HandleExternalChange(ctx, ""))
	assert.Zero(t, notified)
	assert.Empty(t, s.List())
}

func TestHandleExternalChange_StorageError(t *testing.T) {
	ctx := context.Background()
	repo := &flakyRepo{MemoryRepository: blobs.NewMemoryRepository()}
	s := newTestStore(t, repo)
	_, err := s.Create(ctx, models.CreateRequest{Kind: models.KindJournal})
	require.NoError(t, err)

	repo.GetErr = assert.AnError
	require.ErrorIs(t, s.HandleExternalChange(ctx, ""), assert.AnError)
	require.ErrorIs(t, s.Reload(ctx), assert.AnError)
	assert.Len(t, s.List(), 1)
}

func TestReload_AlwaysNotifies(t *testing.T) {
	s := newTestStore(t, blobs.NewMemoryRepository())
	notified := 0
	s.Subscribe(counter(&notified))

	require.NoError(t, s.Reload(context.Background()))
	require.NoError(t, s.Reload(context.Background()))
	assert.Equal(t, 2, notified)
}

func TestMutation_ReadsFreshestState(t *testing.T) {
	ctx := context.Background()
	repo := blobs.NewMemoryRepository()
	a := newTestStore(t, repo, WithIDGenerator(idSeq("a")))
	b := newTestStore(t, repo, WithIDGenerator(idSeq("b")))

	_, err := a.Create(ctx, models.CreateRequest{Kind: models.KindJournal})
	require.NoError(t, err)

	// b never saw a's write but must not clobber it
	_, err = b.Create(ctx, models.CreateRequest{Kind: models.KindMemory})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a-1", "b-1"}, ids(b.List()))

	require.NoError(t, a.HandleExternalChange(ctx, common.RecordsKey))
	assert.Equal(t, ids(b.List()), ids(a.List()))
}
