package session

import "time"

// NavigationChangedEvent is raised whenever the visible (step, tab) changes
type NavigationChangedEvent struct {
	Entry     NavigationEntry
	Restored  bool
	ChangedAt time.Time
}

func (e NavigationChangedEvent) EventName() string {
	return "session.navigation_changed"
}

func (e NavigationChangedEvent) OccurredAt() time.Time {
	return e.ChangedAt
}

// FeedUpdatedEvent is raised after the feed controller merged or replaced items
type FeedUpdatedEvent struct {
	Items     int
	Page      int
	HasMore   bool
	Failed    bool
	UpdatedAt time.Time
}

func (e FeedUpdatedEvent) EventName() string {
	return "session.feed_updated"
}

func (e FeedUpdatedEvent) OccurredAt() time.Time {
	return e.UpdatedAt
}
