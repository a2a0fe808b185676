package session

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/fusionchef/internal/application/engagement"
	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	domain "github.com/alchemorsel/fusionchef/internal/domain/session"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

// Vote casts or toggles the session's vote on a recipe
func (s *Session) Vote(ctx context.Context, id int64, v domain.Vote) (*recipe.Result, error) {
	return s.engage(ctx, id, engagement.ActionVote, func(r recipe.Result) (recipe.Result, error) {
		return s.engagement.CastVote(ctx, r, v)
	})
}

// CancelVote withdraws the session's vote on a recipe
func (s *Session) CancelVote(ctx context.Context, id int64) (*recipe.Result, error) {
	return s.engage(ctx, id, engagement.ActionVote, func(r recipe.Result) (recipe.Result, error) {
		return s.engagement.CancelVote(ctx, r)
	})
}

// Rate rates a recipe once per session
func (s *Session) Rate(ctx context.Context, id int64, score int) (*recipe.Result, error) {
	return s.engage(ctx, id, engagement.ActionRate, func(r recipe.Result) (recipe.Result, error) {
		return s.engagement.Rate(ctx, r, score)
	})
}

// Download counts a download of a recipe
func (s *Session) Download(ctx context.Context, id int64) (*recipe.Result, error) {
	return s.engage(ctx, id, engagement.ActionDownload, func(r recipe.Result) (recipe.Result, error) {
		return s.engagement.Download(ctx, r)
	})
}

// AddComment posts a comment as the signed-in user
func (s *Session) AddComment(ctx context.Context, id int64, text string) (*recipe.Comment, error) {
	var saved *recipe.Comment
	u := s.User()
	_, err := s.engage(ctx, id, engagement.ActionComment, func(r recipe.Result) (recipe.Result, error) {
		out, c, err := s.engagement.Comment(ctx, r, u, text)
		saved = c
		return out, err
	})
	return saved, err
}

// Comments lists the comments of a recipe
func (s *Session) Comments(ctx context.Context, id int64) ([]recipe.Comment, error) {
	r, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.engagement.Comments(ctx, r)
}

// VoteOf returns the session's vote on a recipe
func (s *Session) VoteOf(id int64) domain.Vote {
	return s.engagement.Vote(id)
}

// engage runs an engagement write against the displayed copy of the recipe and spreads
// the resulting counters to every place the recipe is shown. Counters are spread even
// when the write failed.
func (s *Session) engage(ctx context.Context, id int64, action string, write func(recipe.Result) (recipe.Result, error)) (*recipe.Result, error) {
	r, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := write(r)
	if out.Persisted() {
		s.applyStats(out)
	}
	if err != nil && !apperrors.Is(err, apperrors.CodeEngagementFailed) {
		return nil, err
	}

	s.publish(recipe.EngagementChangedEvent{
		RecipeID:  id,
		Action:    action,
		Stats:     out.CurrentStats(),
		Failed:    err != nil,
		ChangedAt: time.Now(),
	})
	return &out, err
}

// lookup finds the displayed copy of a recipe: the community detail view, then the
// history, then the datastore
func (s *Session) lookup(ctx context.Context, id int64) (recipe.Result, error) {
	if id <= 0 {
		return recipe.Result{}, apperrors.NewNotPersistedError()
	}

	s.mu.Lock()
	if s.community != nil && s.community.ID() == id {
		r := s.community.Clone()
		s.mu.Unlock()
		return r, nil
	}
	for i := s.history.Len() - 1; i >= 0; i-- {
		if r, ok := s.history.At(i); ok && r.ID() == id {
			s.mu.Unlock()
			return r, nil
		}
	}
	s.mu.Unlock()

	r, err := s.deps.Recipes.FetchRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrRecipeNotFound) {
			return recipe.Result{}, apperrors.NewRecipeNotFoundError(id)
		}
		return recipe.Result{}, apperrors.Wrap(err, "Failed to load recipe")
	}
	return *r, nil
}

func (s *Session) applyStats(r recipe.Result) {
	stats := r.CurrentStats()

	s.mu.Lock()
	s.history.Update(r.ID(), func(old recipe.Result) recipe.Result {
		return old.WithStats(stats)
	})
	if s.community != nil && s.community.ID() == r.ID() {
		c := s.community.WithStats(stats)
		s.community = &c
	}
	s.mu.Unlock()

	s.feed.UpdateItem(r.FeedItem())
}
