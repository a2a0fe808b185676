package session

import (
	"github.com/alchemorsel/fusionchef/internal/application/feed"
	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	domain "github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/domain/user"
)

// View is everything a client needs to render the session
type View struct {
	ID           string                 `json:"id"`
	Navigation   domain.NavigationEntry `json:"navigation"`
	Choices      domain.UserChoices     `json:"choices"`
	Recipe       *recipe.Result         `json:"recipe,omitempty"`
	HistoryIndex int                    `json:"history_index"`
	HistoryLen   int                    `json:"history_len"`
	Vote         domain.Vote            `json:"vote"`
	Rated        bool                   `json:"rated"`
	Suggestions  recipe.Suggestions     `json:"suggestions"`
	Seasonal     []recipe.Idea          `json:"seasonal"`
	Convenience  []recipe.Idea          `json:"convenience"`
	Category     recipe.Category        `json:"category"`
	Community    *recipe.Result         `json:"community_recipe,omitempty"`
	Feed         feed.State             `json:"feed"`
	User         *user.User             `json:"user,omitempty"`
	Generating   bool                   `json:"generating"`
	Notice       string                 `json:"notice,omitempty"`
}

// View renders the session
func (s *Session) View() View {
	nav := s.nav.Current()
	feedState := s.feed.State()

	s.mu.Lock()
	v := View{
		ID:           s.id,
		Navigation:   nav,
		Choices:      s.choices.Clone(),
		HistoryIndex: s.history.CurrentIndex(),
		HistoryLen:   s.history.Len(),
		Suggestions:  s.suggestions,
		Seasonal:     append([]recipe.Idea{}, s.seasonal.items...),
		Convenience:  append([]recipe.Idea{}, s.convenience.items...),
		Category:     s.category,
		Feed:         feedState,
		User:         s.user,
		Generating:   s.generating,
		Notice:       s.notice,
	}
	if r, ok := s.history.Current(); ok {
		v.Recipe = &r
	}
	if s.community != nil {
		c := s.community.Clone()
		v.Community = &c
	}
	s.mu.Unlock()

	if v.Recipe != nil && v.Recipe.Persisted() {
		v.Vote = s.engagement.Vote(v.Recipe.ID())
		v.Rated = s.engagement.Rated(v.Recipe.ID())
	}
	return v
}
