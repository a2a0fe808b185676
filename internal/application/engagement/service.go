// Package engagement applies votes, ratings, comments and downloads. Every write is
// applied optimistically to the displayed recipe first; a failed datastore call is
// reported but never rolled back.
package engagement

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/domain/user"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

// Actions used for metrics and error metadata
const (
	ActionVote     = "vote"
	ActionRate     = "rate"
	ActionComment  = "comment"
	ActionDownload = "download"
)

// Service holds the engagement state of one session
type Service struct {
	mu    sync.Mutex
	votes map[int64]session.Vote
	rated map[int64]struct{}

	store   outbound.RecipeStore
	metrics outbound.Metrics
	logger  *zap.Logger
}

// NewService creates empty per-session engagement state
func NewService(store outbound.RecipeStore, metrics outbound.Metrics, logger *zap.Logger) *Service {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &Service{
		votes:   make(map[int64]session.Vote),
		rated:   make(map[int64]struct{}),
		store:   store,
		metrics: metrics,
		logger:  logger.Named("engagement"),
	}
}

// Vote returns the session's vote on a recipe
func (s *Service) Vote(id int64) session.Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.votes[id]; ok {
		return v
	}
	return session.VoteNone
}

// Rated reports whether the recipe was rated in this session
func (s *Service) Rated(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rated[id]
	return ok
}

// CastVote toggles or switches the vote on r. The returned recipe carries the
// optimistic counters even when the datastore write fails.
func (s *Service) CastVote(ctx context.Context, r recipe.Result, t session.Vote) (recipe.Result, error) {
	if !r.Persisted() {
		return r, apperrors.NewNotPersistedError()
	}
	id := r.ID()

	s.mu.Lock()
	next, delta := s.currentLocked(id).Cast(t)
	s.votes[id] = next
	s.mu.Unlock()

	return s.sendVote(ctx, r, delta)
}

// CancelVote withdraws the session's vote. Without a vote nothing is written.
func (s *Service) CancelVote(ctx context.Context, r recipe.Result) (recipe.Result, error) {
	if !r.Persisted() {
		return r, apperrors.NewNotPersistedError()
	}
	id := r.ID()

	s.mu.Lock()
	next, delta := s.currentLocked(id).Cancel()
	s.votes[id] = next
	s.mu.Unlock()

	if delta.IsZero() {
		return r, nil
	}
	return s.sendVote(ctx, r, delta)
}

func (s *Service) sendVote(ctx context.Context, r recipe.Result, delta recipe.VoteDelta) (recipe.Result, error) {
	out := r.WithStats(r.CurrentStats().ApplyVote(delta))

	if err := s.store.UpdateVoteCounts(ctx, r.ID(), delta.Success, delta.Fail); err != nil {
		return out, s.failed(ActionVote, r.ID(), err)
	}
	s.metrics.EngagementWrite(ActionVote, "ok")
	return out, nil
}

// Rate records a 1..5 star rating, once per recipe and session
func (s *Service) Rate(ctx context.Context, r recipe.Result, score int) (recipe.Result, error) {
	if !r.Persisted() {
		return r, apperrors.NewNotPersistedError()
	}
	if err := recipe.ValidateScore(score); err != nil {
		return r, err
	}
	id := r.ID()

	s.mu.Lock()
	if _, ok := s.rated[id]; ok {
		s.mu.Unlock()
		return r, recipe.ErrAlreadyRated
	}
	s.rated[id] = struct{}{}
	s.mu.Unlock()

	out := r.WithStats(r.CurrentStats().ApplyRating(score))
	if err := s.store.UpdateRating(ctx, id, score); err != nil {
		return out, s.failed(ActionRate, id, err)
	}
	s.metrics.EngagementWrite(ActionRate, "ok")
	return out, nil
}

// Comment posts a comment as the signed-in user. The comment count only moves once
// the datastore accepted the comment.
func (s *Service) Comment(ctx context.Context, r recipe.Result, u *user.User, text string) (recipe.Result, *recipe.Comment, error) {
	if u == nil {
		return r, nil, apperrors.NewUnauthorizedError("Sign in to leave a comment")
	}
	if !r.Persisted() {
		return r, nil, apperrors.NewNotPersistedError()
	}
	text, err := recipe.NormalizeCommentText(text)
	if err != nil {
		return r, nil, err
	}

	saved, err := s.store.AddComment(ctx, recipe.Comment{
		RecipeID:  r.ID(),
		UserID:    u.ID,
		UserEmail: u.Email,
		Text:      text,
	})
	if err != nil {
		return r, nil, s.failed(ActionComment, r.ID(), err)
	}
	s.metrics.EngagementWrite(ActionComment, "ok")

	stats := r.CurrentStats()
	stats.CommentCount++
	return r.WithStats(stats), saved, nil
}

// Comments lists the comments of a recipe oldest first
func (s *Service) Comments(ctx context.Context, r recipe.Result) ([]recipe.Comment, error) {
	if !r.Persisted() {
		return nil, apperrors.NewNotPersistedError()
	}
	comments, err := s.store.FetchComments(ctx, r.ID())
	if err != nil {
		s.logger.Warn("Failed to load comments", zap.Int64("recipe_id", r.ID()), zap.Error(err))
		return nil, apperrors.Wrap(err, "Failed to load comments")
	}
	return comments, nil
}

// Download counts one recipe download
func (s *Service) Download(ctx context.Context, r recipe.Result) (recipe.Result, error) {
	if !r.Persisted() {
		return r, apperrors.NewNotPersistedError()
	}
	stats := r.CurrentStats()
	stats.DownloadCount++
	out := r.WithStats(stats)

	if err := s.store.IncrementDownloadCount(ctx, r.ID()); err != nil {
		return out, s.failed(ActionDownload, r.ID(), err)
	}
	s.metrics.EngagementWrite(ActionDownload, "ok")
	return out, nil
}

func (s *Service) currentLocked(id int64) session.Vote {
	if v, ok := s.votes[id]; ok {
		return v
	}
	return session.VoteNone
}

func (s *Service) failed(action string, id int64, err error) error {
	s.metrics.EngagementWrite(action, "error")
	s.logger.Warn("Engagement write failed, keeping optimistic state",
		zap.String("action", action),
		zap.Int64("recipe_id", id),
		zap.Error(err))
	return apperrors.NewEngagementError(action, err).WithMetadata("recipe_id", id)
}
