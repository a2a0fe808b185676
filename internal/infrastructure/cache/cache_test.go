package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
	"github.com/alchemorsel/fusionchef/test/testutils"
)

func TestSnapshotStore_TakeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCacheRepository()
	defer repo.Close()
	store := NewSnapshotStore(repo)

	snap := session.Snapshot{
		History:      []recipe.Result{{DishName: "된장 파스타"}, {DishName: "김치 타코"}},
		CurrentIndex: 1,
	}
	require.NoError(t, store.Save(ctx, "recipe_restore_abc", snap, time.Minute))

	got, err := store.Take(ctx, "recipe_restore_abc")
	require.NoError(t, err)
	assert.Equal(t, snap.CurrentIndex, got.CurrentIndex)
	require.Len(t, got.History, 2)
	assert.Equal(t, "김치 타코", got.History[1].DishName)

	_, err = store.Take(ctx, "recipe_restore_abc")
	assert.ErrorIs(t, err, outbound.ErrSnapshotNotFound)
}

func TestSnapshotStore_ConcurrentTakeHasOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCacheRepository()
	defer repo.Close()
	store := NewSnapshotStore(repo)
	require.NoError(t, store.Save(ctx, "k", session.Snapshot{CurrentIndex: 0}, time.Minute))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Take(ctx, "k"); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestSnapshotStore_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCacheRepository()
	defer repo.Close()
	require.NoError(t, repo.Set(ctx, "bad", []byte("{not json"), time.Minute))

	_, err := NewSnapshotStore(repo).Take(ctx, "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, outbound.ErrSnapshotNotFound))
}

func TestRecipeCacheStore_ReadsThroughAndInvalidates(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCacheRepository()
	defer repo.Close()

	factory := testutils.NewRecipeFactory(7)
	stored := factory.Persisted()
	id := stored.ID()

	backing := testutils.NewMockRecipeStore()
	backing.On("FetchRecipeByID", mock.Anything, id).Return(&stored, nil).Twice()
	backing.On("UpdateVoteCounts", mock.Anything, id, 1, 0).Return(nil).Once()

	store := NewRecipeCacheStore(backing, repo, time.Minute, zap.NewNop())

	first, err := store.FetchRecipeByID(ctx, id)
	require.NoError(t, err)
	second, err := store.FetchRecipeByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.DishName, second.DishName)

	require.NoError(t, store.UpdateVoteCounts(ctx, id, 1, 0))
	exists, _ := repo.Exists(ctx, recipeKey(id))
	assert.False(t, exists)

	_, err = store.FetchRecipeByID(ctx, id)
	require.NoError(t, err)
	backing.AssertExpectations(t)
}

func TestRecipeCacheStore_AddCommentDropsCommentList(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCacheRepository()
	defer repo.Close()

	backing := memory.NewRecipeStore()
	ident, err := backing.SaveRecipe(ctx, recipe.Result{DishName: "유자 연어"})
	require.NoError(t, err)

	store := NewRecipeCacheStore(backing, repo, time.Minute, zap.NewNop())
	comments, err := store.FetchComments(ctx, ident.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	_, err = store.AddComment(ctx, recipe.Comment{RecipeID: ident.ID, UserID: "u1", Text: "좋아요"})
	require.NoError(t, err)

	comments, err = store.FetchComments(ctx, ident.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	r, err := store.FetchRecipeByID(ctx, ident.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.CurrentStats().CommentCount)
}
