package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fashionStudio/internal/garment"
	"fashionStudio/internal/generation"
	"fashionStudio/internal/imagery"
)

func TestInMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	created, err := store.CreateSession(ctx, Session{
		Images:   []Asset{{Role: imagery.RoleGarment, Slot: garment.SlotTops, MIME: "image/png", Data: []byte{1, 2}}},
		Analysis: garment.Analysis{Tops: &garment.Item{Description: "linen shirt"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "linen shirt", got.Analysis.Tops.Description)
	assert.Equal(t, imagery.Set{{Role: imagery.RoleGarment, Slot: garment.SlotTops, MIME: "image/png", Data: []byte{1, 2}}}, got.ImageSet())

	got.Analysis.Tops.Description = "mutated by caller"
	again, err := store.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "linen shirt", again.Analysis.Tops.Description, "reads are copies")

	updated, err := store.UpdateAnalysis(ctx, created.ID, func(a garment.Analysis) garment.Analysis {
		return a.WithItem(garment.SlotTops, garment.Item{Description: "red " + a.Tops.Description})
	})
	require.NoError(t, err)
	assert.Equal(t, "red linen shirt", updated.Analysis.Tops.Description)

	list, err := store.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.DeleteSession(ctx, created.ID))
	_, err = store.GetSession(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteSession(ctx, created.ID), ErrNotFound)
}

func TestInMemoryStoreEpochFencing(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	sess, err := store.CreateSession(ctx, Session{})
	require.NoError(t, err)

	first, err := store.BeginGeneration(ctx, sess.ID, Settings{Views: []generation.ECView{generation.ViewFront}})
	require.NoError(t, err)
	second, err := store.BeginGeneration(ctx, sess.ID, Settings{Purposes: []generation.Purpose{generation.PurposeSocial}})
	require.NoError(t, err)
	assert.Equal(t, first+1, second)

	stale := []generation.PreviewResult{{ID: "old", Status: generation.StatusCompleted}}
	assert.ErrorIs(t, store.CommitResults(ctx, sess.ID, first, stale), ErrStaleEpoch)

	fresh := []generation.PreviewResult{{ID: "new", Status: generation.StatusCompleted}}
	require.NoError(t, store.CommitResults(ctx, sess.ID, second, fresh))

	got, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "new", got.Results[0].ID)
	assert.Equal(t, []generation.Purpose{generation.PurposeSocial}, got.Settings.Purposes)

	assert.ErrorIs(t, store.CommitResults(ctx, "missing", 1, fresh), ErrNotFound)
	_, err = store.BeginGeneration(ctx, "missing", Settings{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStoreConcurrentEpochsAreDistinct(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	sess, err := store.CreateSession(ctx, Session{})
	require.NoError(t, err)

	const n = 20
	epochs := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			epoch, err := store.BeginGeneration(ctx, sess.ID, Settings{})
			assert.NoError(t, err)
			epochs <- epoch
		}()
	}
	wg.Wait()
	close(epochs)

	seen := map[int64]bool{}
	for e := range epochs {
		assert.False(t, seen[e], "epoch %d handed out twice", e)
		seen[e] = true
	}
	assert.Len(t, seen, n)
}

func TestInMemoryStoreConcurrentAnalysisUpdatesCompose(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	sess, err := store.CreateSession(ctx, Session{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, slot := range garment.Slots {
		wg.Add(1)
		go func(slot garment.Slot) {
			defer wg.Done()
			_, err := store.UpdateAnalysis(ctx, sess.ID, func(a garment.Analysis) garment.Analysis {
				return a.WithItem(slot, garment.Item{Description: string(slot)})
			})
			assert.NoError(t, err)
		}(slot)
	}
	wg.Wait()

	got, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, garment.Slots, got.Analysis.Present(), "no update was lost")

	_, err = store.UpdateAnalysis(ctx, "missing", func(a garment.Analysis) garment.Analysis { return a })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	first, err := store.CreateSession(ctx, Session{})
	require.NoError(t, err)
	for i := 0; i < maxMemorySessions; i++ {
		_, err := store.CreateSession(ctx, Session{})
		require.NoError(t, err)
	}

	_, err = store.GetSession(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
