package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

const (
	recipeKeyPrefix   = "recipe:"
	commentsKeyPrefix = "recipe_comments:"
)

// CachedRecipe is the cache envelope for a single recipe
type CachedRecipe struct {
	Recipe   *recipe.Result `json:"recipe"`
	CachedAt time.Time      `json:"cached_at"`
}

// RecipeCacheStore decorates a RecipeStore with cache-first reads of single recipes and
// their comments. Every write for a recipe drops that recipe's entries. Feed pages are
// never cached since they must reflect counters the moment they change.
type RecipeCacheStore struct {
	store  outbound.RecipeStore
	cache  outbound.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRecipeCacheStore creates the decorator; ttl of zero means 10 minutes
func NewRecipeCacheStore(store outbound.RecipeStore, cache outbound.CacheRepository, ttl time.Duration, logger *zap.Logger) *RecipeCacheStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RecipeCacheStore{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Named("recipe-cache"),
	}
}

func recipeKey(id int64) string   { return fmt.Sprintf("%s%d", recipeKeyPrefix, id) }
func commentsKey(id int64) string { return fmt.Sprintf("%s%d", commentsKeyPrefix, id) }

// SaveRecipe passes through; a new id has nothing to invalidate
func (s *RecipeCacheStore) SaveRecipe(ctx context.Context, r recipe.Result) (*recipe.Identity, error) {
	return s.store.SaveRecipe(ctx, r)
}

// FetchRecipeByID retrieves a recipe from cache or falls back to the store
func (s *RecipeCacheStore) FetchRecipeByID(ctx context.Context, id int64) (*recipe.Result, error) {
	key := recipeKey(id)

	data, err := s.cache.Get(ctx, key)
	if err == nil {
		var cached CachedRecipe
		if err := json.Unmarshal(data, &cached); err == nil && cached.Recipe != nil {
			s.logger.Debug("Recipe cache hit", zap.Int64("recipe_id", id))
			return cached.Recipe, nil
		}
		s.logger.Error("Failed to unmarshal cached recipe", zap.Int64("recipe_id", id))
	}

	r, err := s.store.FetchRecipeByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(CachedRecipe{Recipe: r, CachedAt: time.Now()})
	if err == nil {
		err = s.cache.Set(ctx, key, payload, s.ttl)
	}
	if err != nil {
		s.logger.Warn("Failed to cache recipe after fallback", zap.Int64("recipe_id", id), zap.Error(err))
	}
	return r, nil
}

// FetchFeed always reads through
func (s *RecipeCacheStore) FetchFeed(ctx context.Context, q recipe.FeedQuery) ([]recipe.FeedItem, error) {
	return s.store.FetchFeed(ctx, q)
}

// SupportsSort reports what the wrapped store supports
func (s *RecipeCacheStore) SupportsSort(k recipe.SortKey) bool {
	if ss, ok := s.store.(outbound.SortSupport); ok {
		return ss.SupportsSort(k)
	}
	return false
}

func (s *RecipeCacheStore) IncrementDownloadCount(ctx context.Context, id int64) error {
	defer s.invalidate(ctx, recipeKey(id))
	return s.store.IncrementDownloadCount(ctx, id)
}

func (s *RecipeCacheStore) UpdateRating(ctx context.Context, id int64, score int) error {
	defer s.invalidate(ctx, recipeKey(id))
	return s.store.UpdateRating(ctx, id, score)
}

func (s *RecipeCacheStore) UpdateVoteCounts(ctx context.Context, id int64, successDelta, failDelta int) error {
	defer s.invalidate(ctx, recipeKey(id))
	return s.store.UpdateVoteCounts(ctx, id, successDelta, failDelta)
}

// FetchComments is cache-first like FetchRecipeByID
func (s *RecipeCacheStore) FetchComments(ctx context.Context, id int64) ([]recipe.Comment, error) {
	key := commentsKey(id)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var comments []recipe.Comment
		if err := json.Unmarshal(data, &comments); err == nil {
			return comments, nil
		}
	}

	comments, err := s.store.FetchComments(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(comments); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
			s.logger.Warn("Failed to cache comments", zap.Int64("recipe_id", id), zap.Error(err))
		}
	}
	return comments, nil
}

// AddComment drops the comment list and the recipe (its comment count changed)
func (s *RecipeCacheStore) AddComment(ctx context.Context, c recipe.Comment) (*recipe.Comment, error) {
	defer s.invalidate(ctx, recipeKey(c.RecipeID), commentsKey(c.RecipeID))
	return s.store.AddComment(ctx, c)
}

func (s *RecipeCacheStore) invalidate(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if err := s.cache.Delete(ctx, k); err != nil {
			s.logger.Error("Failed to invalidate recipe cache", zap.String("key", k), zap.Error(err))
		}
	}
}
