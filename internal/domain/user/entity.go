// Package user defines the signed-in user as seen by a wizard session
package user

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidIdentity is returned for an identity without id or email
var ErrInvalidIdentity = errors.New("identity requires an id and an email")

// User is an authenticated person. Accounts live with the identity provider,
// the application keeps only what comments need.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// New validates and normalizes an identity
func New(id, email string) (*User, error) {
	id = strings.TrimSpace(id)
	email = strings.ToLower(strings.TrimSpace(email))
	if id == "" || email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidIdentity
	}
	return &User{ID: id, Email: email}, nil
}

// DisplayName is the local part of the email, used next to comments
func (u User) DisplayName() string {
	if i := strings.IndexByte(u.Email, '@'); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}

// AuthChangedEvent is raised on sign in and sign out
type AuthChangedEvent struct {
	User      *User
	SignedIn  bool
	ChangedAt time.Time
}

func (e AuthChangedEvent) EventName() string {
	return "user.auth_changed"
}

func (e AuthChangedEvent) OccurredAt() time.Time {
	return e.ChangedAt
}
