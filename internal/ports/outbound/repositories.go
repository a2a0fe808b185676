// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/domain/shared"
	"github.com/alchemorsel/fusionchef/internal/domain/user"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent keys
var ErrCacheMiss = errors.New("cache miss")

// ErrSnapshotNotFound is returned by SnapshotStore.Take when nothing is stored
var ErrSnapshotNotFound = errors.New("redirect snapshot not found")

// ErrPersistenceDisabled is returned by the store used in local mode
var ErrPersistenceDisabled = errors.New("persistence is not configured")

// RecipeStore persists generated recipes, their engagement counters and comments
type RecipeStore interface {
	SaveRecipe(ctx context.Context, r recipe.Result) (*recipe.Identity, error)
	// FetchRecipeByID returns recipe.ErrRecipeNotFound for unknown ids
	FetchRecipeByID(ctx context.Context, id int64) (*recipe.Result, error)
	FetchFeed(ctx context.Context, q recipe.FeedQuery) ([]recipe.FeedItem, error)

	IncrementDownloadCount(ctx context.Context, id int64) error
	UpdateRating(ctx context.Context, id int64, score int) error
	UpdateVoteCounts(ctx context.Context, id int64, successDelta, failDelta int) error

	FetchComments(ctx context.Context, id int64) ([]recipe.Comment, error)
	AddComment(ctx context.Context, c recipe.Comment) (*recipe.Comment, error)
}

// FeedSource is the read side used by the feed controller
type FeedSource interface {
	FetchFeed(ctx context.Context, q recipe.FeedQuery) ([]recipe.FeedItem, error)
}

// SortSupport is implemented by feed sources that order rows themselves
type SortSupport interface {
	SupportsSort(k recipe.SortKey) bool
}

// TextGenerator produces the recipe body from the user's choices
type TextGenerator interface {
	GenerateRecipe(ctx context.Context, choices session.UserChoices, isRegenerate bool) (*recipe.Result, error)
}

// GeneratedImage is raw image output of the image model
type GeneratedImage struct {
	Data     []byte
	MIMEType string
}

// ImageGenerator renders a photo of the dish
type ImageGenerator interface {
	GenerateDishImage(ctx context.Context, dishName string) (*GeneratedImage, error)
}

// IdeaService proposes ingredients and topics for the selection screens.
// Implementations return empty results instead of errors.
type IdeaService interface {
	FetchSuggestions(ctx context.Context, ingredients string) recipe.Suggestions
	FetchSeasonalIngredients(ctx context.Context, exclude []string) []recipe.Idea
	FetchConvenienceTopics(ctx context.Context, exclude []string, category recipe.Category) []recipe.Idea
}

// ImageStore uploads generated images and returns their public URL
type ImageStore interface {
	Put(ctx context.Context, img GeneratedImage) (string, error)
}

// HistoryStack is the platform back/forward stack a session is mirrored to
type HistoryStack interface {
	Push(entry session.NavigationEntry) error
	Replace(entry session.NavigationEntry) error
	// Back moves to the previous entry and delivers it to the subscriber
	Back() error
	CanGoBack() bool
	Current() (session.NavigationEntry, bool)
	// Previous peeks at the entry Back would restore
	Previous() (session.NavigationEntry, bool)
	// Subscribe registers the restore handler. The handler may run synchronously inside Back.
	Subscribe(fn func(entry *session.NavigationEntry))
}

// SnapshotStore keeps the redirect snapshot. Take must read and delete atomically.
type SnapshotStore interface {
	Save(ctx context.Context, key string, s session.Snapshot, ttl time.Duration) error
	Take(ctx context.Context, key string) (*session.Snapshot, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// GetDel returns the value and removes the key in one step
	GetDel(ctx context.Context, key string) ([]byte, error)
}

// EventPublisher fans session events out to connected clients
type EventPublisher interface {
	Publish(ctx context.Context, sessionID string, event shared.DomainEvent) error
}

// AuthProvider is the identity side of a session
type AuthProvider interface {
	SignIn(ctx context.Context, state string) (redirectURL string, err error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*user.User, error)
	OnAuthChange(fn func(e user.AuthChangedEvent)) (unsubscribe func())
}
