package recipe

import (
	"time"
)

// Domain Events - Events that occur within the recipe domain

// RecipeGeneratedEvent is raised when a generation run produced a recipe
type RecipeGeneratedEvent struct {
	DishName     string
	RecipeID     int64
	Saved        bool
	HasImage     bool
	Regenerated  bool
	HistoryIndex int
	GeneratedAt  time.Time
}

func (e RecipeGeneratedEvent) EventName() string {
	return "recipe.generated"
}

func (e RecipeGeneratedEvent) OccurredAt() time.Time {
	return e.GeneratedAt
}

// GenerationFailedEvent carries the one-line notice shown after a fatal generation error
type GenerationFailedEvent struct {
	Notice   string
	TimedOut bool
	FailedAt time.Time
}

func (e GenerationFailedEvent) EventName() string {
	return "recipe.generation_failed"
}

func (e GenerationFailedEvent) OccurredAt() time.Time {
	return e.FailedAt
}

// EngagementChangedEvent is raised after an optimistic vote, rating, comment or download
type EngagementChangedEvent struct {
	RecipeID  int64
	Action    string
	Stats     Stats
	Failed    bool
	ChangedAt time.Time
}

func (e EngagementChangedEvent) EventName() string {
	return "recipe.engagement_changed"
}

func (e EngagementChangedEvent) OccurredAt() time.Time {
	return e.ChangedAt
}
