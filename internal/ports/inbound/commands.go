// Package inbound defines the requests driving adapters send into the application.
// HTTP handlers decode and validate these before calling a session.
package inbound

import (
	"context"

	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/domain/user"
)

// CreateSessionCommand starts a wizard. RestoreNonce resumes the history saved before a
// login redirect.
type CreateSessionCommand struct {
	RestoreNonce string `json:"restore_nonce,omitempty" validate:"omitempty,uuid4"`
}

// NextCommand raises a forward event on the current screen
type NextCommand struct {
	Event string `json:"event" validate:"required,oneof=start choose_fridge choose_seasonal choose_convenience submit reset"`
}

// TabCommand switches the bottom tab
type TabCommand struct {
	Tab string `json:"tab" validate:"required,oneof=home community"`
}

// RestoreCommand reports a client back/forward gesture. Entry is nil when the browser
// had no state stored for the slot.
type RestoreCommand struct {
	Entry *RestoreEntry `json:"entry"`
}

// RestoreEntry is the history state the client stored with pushState
type RestoreEntry struct {
	Step        string `json:"step" validate:"required"`
	Tab         string `json:"tab" validate:"required,oneof=home community"`
	RecipeIndex *int   `json:"recipe_index,omitempty" validate:"omitempty,min=-1"`
	RecipeKey   uint64 `json:"recipe_key,omitempty"`
}

// ToEntry parses the reported state
func (e RestoreEntry) ToEntry() (session.NavigationEntry, error) {
	step, err := session.ParseStep(e.Step)
	if err != nil {
		return session.NavigationEntry{}, err
	}
	tab, err := session.ParseTab(e.Tab)
	if err != nil {
		return session.NavigationEntry{}, err
	}
	entry := session.Entry(step, tab)
	if e.RecipeIndex != nil {
		entry.RecipeIndex = *e.RecipeIndex
		entry.RecipeKey = e.RecipeKey
	}
	return entry, nil
}

// IdeasCommand asks for seasonal ingredients or convenience combos
type IdeasCommand struct {
	More     bool   `json:"more"`
	Category string `json:"category,omitempty" validate:"omitempty,oneof=meal snack"`
}

// SelectConvenienceCommand generates a recipe for a picked combo
type SelectConvenienceCommand struct {
	Name string `json:"name" validate:"required,max=100"`
}

// GenerateCommand starts a generation. Override is a similar-recipe or combo title.
type GenerateCommand struct {
	Regenerate bool    `json:"regenerate"`
	Override   *string `json:"override,omitempty" validate:"omitempty,min=1,max=100"`
}

// FeedFilterCommand changes the community filter
type FeedFilterCommand struct {
	Search *string `json:"search,omitempty" validate:"omitempty,max=100"`
	Sort   *string `json:"sort,omitempty" validate:"omitempty,oneof=latest rating success comments popular"`
}

// VoteCommand casts, toggles or cancels a vote
type VoteCommand struct {
	Type   string `json:"type" validate:"required_without=Cancel,omitempty,oneof=success fail"`
	Cancel bool   `json:"cancel"`
}

// RateCommand rates a recipe
type RateCommand struct {
	Score int `json:"score" validate:"required,min=1,max=5"`
}

// CommentCommand posts a comment
type CommentCommand struct {
	Content string `json:"content" validate:"required,max=500"`
}

// AuthService is the identity use case set driven by the auth routes
type AuthService interface {
	SignIn(ctx context.Context, state string) (string, error)
	Complete(ctx context.Context, state, subject, email string) (token string, u *user.User, err error)
	CurrentUser(ctx context.Context, token string) (*user.User, error)
	SignOut(ctx context.Context, token string) error
}
