// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/domain/shared"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

// MockRecipeStore provides a mock implementation of RecipeStore
type MockRecipeStore struct {
	mock.Mock
}

var _ outbound.RecipeStore = (*MockRecipeStore)(nil)

// NewMockRecipeStore creates a new mock recipe store
func NewMockRecipeStore() *MockRecipeStore {
	return &MockRecipeStore{}
}

// SaveRecipe saves a recipe
func (m *MockRecipeStore) SaveRecipe(ctx context.Context, r recipe.Result) (*recipe.Identity, error) {
	args := m.Called(ctx, r)
	if id, ok := args.Get(0).(*recipe.Identity); ok {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

// FetchRecipeByID finds a recipe by ID
func (m *MockRecipeStore) FetchRecipeByID(ctx context.Context, id int64) (*recipe.Result, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*recipe.Result); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// FetchFeed returns one page
func (m *MockRecipeStore) FetchFeed(ctx context.Context, q recipe.FeedQuery) ([]recipe.FeedItem, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]recipe.FeedItem)
	return items, args.Error(1)
}

// IncrementDownloadCount bumps the download counter
func (m *MockRecipeStore) IncrementDownloadCount(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// UpdateRating records a rating
func (m *MockRecipeStore) UpdateRating(ctx context.Context, id int64, score int) error {
	return m.Called(ctx, id, score).Error(0)
}

// UpdateVoteCounts applies a vote delta
func (m *MockRecipeStore) UpdateVoteCounts(ctx context.Context, id int64, successDelta, failDelta int) error {
	return m.Called(ctx, id, successDelta, failDelta).Error(0)
}

// FetchComments lists comments
func (m *MockRecipeStore) FetchComments(ctx context.Context, id int64) ([]recipe.Comment, error) {
	args := m.Called(ctx, id)
	comments, _ := args.Get(0).([]recipe.Comment)
	return comments, args.Error(1)
}

// AddComment stores a comment
func (m *MockRecipeStore) AddComment(ctx context.Context, c recipe.Comment) (*recipe.Comment, error) {
	args := m.Called(ctx, c)
	if out, ok := args.Get(0).(*recipe.Comment); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

// SetupStandardMockBehavior makes every write succeed and the feed empty
func (m *MockRecipeStore) SetupStandardMockBehavior() {
	m.On("SaveRecipe", mock.Anything, mock.AnythingOfType("recipe.Result")).
		Return(&recipe.Identity{ID: 1, CreatedAt: time.Now()}, nil).Maybe()
	m.On("FetchFeed", mock.Anything, mock.AnythingOfType("recipe.FeedQuery")).
		Return([]recipe.FeedItem{}, nil).Maybe()
	m.On("IncrementDownloadCount", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("UpdateRating", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("UpdateVoteCounts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

// MockTextGenerator provides a mock implementation of TextGenerator
type MockTextGenerator struct {
	mock.Mock
}

// GenerateRecipe generates a recipe
func (m *MockTextGenerator) GenerateRecipe(ctx context.Context, choices session.UserChoices, isRegenerate bool) (*recipe.Result, error) {
	args := m.Called(ctx, choices, isRegenerate)
	if r, ok := args.Get(0).(*recipe.Result); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockImageGenerator provides a mock implementation of ImageGenerator
type MockImageGenerator struct {
	mock.Mock
}

// GenerateDishImage renders a photo
func (m *MockImageGenerator) GenerateDishImage(ctx context.Context, dishName string) (*outbound.GeneratedImage, error) {
	args := m.Called(ctx, dishName)
	if img, ok := args.Get(0).(*outbound.GeneratedImage); ok {
		return img, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockImageStore provides a mock implementation of ImageStore
type MockImageStore struct {
	mock.Mock
}

// Put uploads an image
func (m *MockImageStore) Put(ctx context.Context, img outbound.GeneratedImage) (string, error) {
	args := m.Called(ctx, img)
	return args.String(0), args.Error(1)
}

// MockIdeaService provides a mock implementation of IdeaService
type MockIdeaService struct {
	mock.Mock
}

// FetchSuggestions proposes side ingredients
func (m *MockIdeaService) FetchSuggestions(ctx context.Context, ingredients string) recipe.Suggestions {
	args := m.Called(ctx, ingredients)
	s, _ := args.Get(0).(recipe.Suggestions)
	return s
}

// FetchSeasonalIngredients proposes seasonal picks
func (m *MockIdeaService) FetchSeasonalIngredients(ctx context.Context, exclude []string) []recipe.Idea {
	args := m.Called(ctx, exclude)
	ideas, _ := args.Get(0).([]recipe.Idea)
	return ideas
}

// FetchConvenienceTopics proposes convenience-store topics
func (m *MockIdeaService) FetchConvenienceTopics(ctx context.Context, exclude []string, category recipe.Category) []recipe.Idea {
	args := m.Called(ctx, exclude, category)
	ideas, _ := args.Get(0).([]recipe.Idea)
	return ideas
}

// RecordingPublisher collects published events
type RecordingPublisher struct {
	mu     sync.Mutex
	events map[string][]shared.DomainEvent
}

var _ outbound.EventPublisher = (*RecordingPublisher)(nil)

// NewRecordingPublisher creates an empty publisher
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{events: make(map[string][]shared.DomainEvent)}
}

// Publish records the event
func (p *RecordingPublisher) Publish(_ context.Context, sessionID string, event shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[sessionID] = append(p.events[sessionID], event)
	return nil
}

// Events returns the names of the events published to a session
func (p *RecordingPublisher) Events(sessionID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events[sessionID]))
	for _, e := range p.events[sessionID] {
		names = append(names, e.EventName())
	}
	return names
}
