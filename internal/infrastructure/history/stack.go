// Package history provides the in-process back/forward stack a session mirrors its
// navigation to when the client delegates history handling to the server.
package history

import (
	"errors"
	"sync"

	"github.com/alchemorsel/fusionchef/internal/domain/session"
)

// ErrRestricted is returned by writes on a stack that forbids history mutation
var ErrRestricted = errors.New("history mutation is not allowed in this context")

// Stack is a browser-like history: push truncates the forward entries, back and
// forward move a cursor and deliver the entry to the subscriber.
type Stack struct {
	mu         sync.Mutex
	entries    []session.NavigationEntry
	index      int
	restricted bool
	listener   func(entry *session.NavigationEntry)
}

// NewStack returns an empty stack
func NewStack() *Stack {
	return &Stack{index: -1}
}

// NewRestrictedStack returns a stack whose writes always fail, like a sandboxed frame
func NewRestrictedStack() *Stack {
	return &Stack{index: -1, restricted: true}
}

// Push appends an entry after the cursor
func (s *Stack) Push(entry session.NavigationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.restricted {
		return ErrRestricted
	}
	s.entries = append(s.entries[:s.index+1], entry)
	s.index = len(s.entries) - 1
	return nil
}

// Replace overwrites the entry under the cursor
func (s *Stack) Replace(entry session.NavigationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.restricted {
		return ErrRestricted
	}
	if s.index < 0 {
		s.entries = []session.NavigationEntry{entry}
		s.index = 0
		return nil
	}
	s.entries[s.index] = entry
	return nil
}

// Back moves the cursor back and delivers the restored entry
func (s *Stack) Back() error {
	return s.move(-1)
}

// Forward moves the cursor forward and delivers the restored entry
func (s *Stack) Forward() error {
	return s.move(1)
}

func (s *Stack) move(delta int) error {
	s.mu.Lock()
	next := s.index + delta
	if next < 0 || next >= len(s.entries) {
		s.mu.Unlock()
		return nil
	}
	s.index = next
	entry := s.entries[next]
	fn := s.listener
	s.mu.Unlock()

	if fn != nil {
		fn(&entry)
	}
	return nil
}

// CanGoBack reports whether an entry precedes the cursor
func (s *Stack) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index > 0
}

// Current returns the entry under the cursor
func (s *Stack) Current() (session.NavigationEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < 0 {
		return session.NavigationEntry{}, false
	}
	return s.entries[s.index], true
}

// Previous returns the entry Back would restore
func (s *Stack) Previous() (session.NavigationEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index <= 0 {
		return session.NavigationEntry{}, false
	}
	return s.entries[s.index-1], true
}

// Len returns the number of entries, including forward ones
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a copy of the stack contents
func (s *Stack) Entries() []session.NavigationEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]session.NavigationEntry(nil), s.entries...)
}

// Subscribe installs the restore handler
func (s *Stack) Subscribe(fn func(entry *session.NavigationEntry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}
