package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

type storedRecipe struct {
	result   recipe.Result
	stats    recipe.Stats
	comments []recipe.Comment
}

// RecipeStore keeps recipes in process memory. Feed pages come back newest first
// whatever sort was asked for; the feed controller re-sorts them.
type RecipeStore struct {
	mu        sync.RWMutex
	recipes   map[int64]*storedRecipe
	nextID    int64
	commentID int64
	now       func() time.Time
}

var _ outbound.RecipeStore = (*RecipeStore)(nil)

// NewRecipeStore creates an empty store
func NewRecipeStore() *RecipeStore {
	return &RecipeStore{
		recipes: make(map[int64]*storedRecipe),
		now:     time.Now,
	}
}

// SaveRecipe stores a copy of the recipe under a new id
func (s *RecipeStore) SaveRecipe(ctx context.Context, r recipe.Result) (*recipe.Identity, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := recipe.Identity{ID: s.nextID, CreatedAt: s.now()}
	body := r.Clone()
	body.Identity = nil
	body.Stats = nil
	s.recipes[id.ID] = &storedRecipe{result: body.WithIdentity(id)}
	return &id, nil
}

// FetchRecipeByID returns a copy with current stats
func (s *RecipeStore) FetchRecipeByID(ctx context.Context, id int64) (*recipe.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sr, ok := s.recipes[id]
	if !ok {
		return nil, recipe.ErrRecipeNotFound
	}
	out := sr.result.WithStats(sr.stats)
	return &out, nil
}

// FetchFeed filters by dish name and pages newest first
func (s *RecipeStore) FetchFeed(ctx context.Context, q recipe.FeedQuery) ([]recipe.FeedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	term := strings.ToLower(strings.TrimSpace(q.Search))
	items := make([]recipe.FeedItem, 0, len(s.recipes))
	for _, sr := range s.recipes {
		if term != "" && !strings.Contains(strings.ToLower(sr.result.DishName), term) {
			continue
		}
		item := sr.result.FeedItem()
		item.Stats = sr.stats
		items = append(items, item)
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })

	start := q.Offset()
	if start >= len(items) {
		return []recipe.FeedItem{}, nil
	}
	end := start + q.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], nil
}

func (s *RecipeStore) update(id int64, fn func(st *recipe.Stats)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sr, ok := s.recipes[id]
	if !ok {
		return recipe.ErrRecipeNotFound
	}
	fn(&sr.stats)
	return nil
}

func (s *RecipeStore) IncrementDownloadCount(ctx context.Context, id int64) error {
	return s.update(id, func(st *recipe.Stats) { st.DownloadCount++ })
}

func (s *RecipeStore) UpdateRating(ctx context.Context, id int64, score int) error {
	if err := recipe.ValidateScore(score); err != nil {
		return err
	}
	return s.update(id, func(st *recipe.Stats) { *st = st.ApplyRating(score) })
}

func (s *RecipeStore) UpdateVoteCounts(ctx context.Context, id int64, successDelta, failDelta int) error {
	return s.update(id, func(st *recipe.Stats) {
		*st = st.ApplyVote(recipe.VoteDelta{Success: successDelta, Fail: failDelta})
	})
}

// FetchComments lists comments oldest first
func (s *RecipeStore) FetchComments(ctx context.Context, id int64) ([]recipe.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sr, ok := s.recipes[id]
	if !ok {
		return []recipe.Comment{}, nil
	}
	return append([]recipe.Comment{}, sr.comments...), nil
}

// AddComment appends a comment and bumps the counter
func (s *RecipeStore) AddComment(ctx context.Context, c recipe.Comment) (*recipe.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sr, ok := s.recipes[c.RecipeID]
	if !ok {
		return nil, recipe.ErrRecipeNotFound
	}
	s.commentID++
	c.ID = s.commentID
	c.CreatedAt = s.now()
	sr.comments = append(sr.comments, c)
	sr.stats.CommentCount++
	return &c, nil
}

// DisabledStore is the RecipeStore of local mode: nothing is persisted, the feed is empty
// and every write reports ErrPersistenceDisabled.
type DisabledStore struct{}

var _ outbound.RecipeStore = DisabledStore{}

func (DisabledStore) SaveRecipe(context.Context, recipe.Result) (*recipe.Identity, error) {
	return nil, outbound.ErrPersistenceDisabled
}

func (DisabledStore) FetchRecipeByID(context.Context, int64) (*recipe.Result, error) {
	return nil, recipe.ErrRecipeNotFound
}

func (DisabledStore) FetchFeed(context.Context, recipe.FeedQuery) ([]recipe.FeedItem, error) {
	return []recipe.FeedItem{}, nil
}

func (DisabledStore) IncrementDownloadCount(context.Context, int64) error {
	return outbound.ErrPersistenceDisabled
}

func (DisabledStore) UpdateRating(context.Context, int64, int) error {
	return outbound.ErrPersistenceDisabled
}

func (DisabledStore) UpdateVoteCounts(context.Context, int64, int, int) error {
	return outbound.ErrPersistenceDisabled
}

func (DisabledStore) FetchComments(context.Context, int64) ([]recipe.Comment, error) {
	return []recipe.Comment{}, nil
}

func (DisabledStore) AddComment(context.Context, recipe.Comment) (*recipe.Comment, error) {
	return nil, outbound.ErrPersistenceDisabled
}
