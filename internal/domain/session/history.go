package session

import (
	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
)

// RecipeHistory is the ordered list of recipes generated in a session with a cursor.
// Appending while the cursor is not at the end drops everything after the cursor first.
// Every slot gets a key that is never reused, so an index recorded before a truncation
// can be told apart from the recipe that later took its place.
type RecipeHistory struct {
	entries []recipe.Result
	keys    []uint64
	current int
	lastKey uint64
}

// NewRecipeHistory returns an empty history
func NewRecipeHistory() *RecipeHistory {
	return &RecipeHistory{current: -1}
}

// Len returns the number of recipes
func (h *RecipeHistory) Len() int {
	return len(h.entries)
}

// CurrentIndex returns the cursor, -1 when empty
func (h *RecipeHistory) CurrentIndex() int {
	return h.current
}

// Append truncates the future and appends r, moving the cursor onto it
func (h *RecipeHistory) Append(r recipe.Result) int {
	h.entries = append(h.entries[:h.current+1], r.Clone())
	h.keys = append(h.keys[:h.current+1], h.newKey())
	h.current = len(h.entries) - 1
	return h.current
}

func (h *RecipeHistory) newKey() uint64 {
	h.lastKey++
	return h.lastKey
}

// KeyAt returns the key of slot i, 0 when out of range
func (h *RecipeHistory) KeyAt(i int) uint64 {
	if i < 0 || i >= len(h.keys) {
		return 0
	}
	return h.keys[i]
}

// Resolve finds the slot an entry refers to. A non-zero key must still be present;
// a zero key falls back to the index alone.
func (h *RecipeHistory) Resolve(index int, key uint64) (int, bool) {
	if key == 0 {
		return index, index >= 0 && index < len(h.entries)
	}
	for i, k := range h.keys {
		if k == key {
			return i, true
		}
	}
	return NoRecipe, false
}

// Back moves the cursor one step back. It reports false at the start.
func (h *RecipeHistory) Back() bool {
	if h.current <= 0 {
		return false
	}
	h.current--
	return true
}

// Forward moves the cursor one step forward. It reports false at the end.
func (h *RecipeHistory) Forward() bool {
	if h.current >= len(h.entries)-1 {
		return false
	}
	h.current++
	return true
}

// Select moves the cursor to i when it is in range
func (h *RecipeHistory) Select(i int) bool {
	if i < 0 || i >= len(h.entries) {
		return false
	}
	h.current = i
	return true
}

// Current returns a copy of the recipe under the cursor
func (h *RecipeHistory) Current() (recipe.Result, bool) {
	if h.current < 0 {
		return recipe.Result{}, false
	}
	return h.entries[h.current].Clone(), true
}

// At returns a copy of the recipe at i
func (h *RecipeHistory) At(i int) (recipe.Result, bool) {
	if i < 0 || i >= len(h.entries) {
		return recipe.Result{}, false
	}
	return h.entries[i].Clone(), true
}

// Update replaces every entry that carries the persisted id
func (h *RecipeHistory) Update(id int64, fn func(recipe.Result) recipe.Result) bool {
	changed := false
	for i := range h.entries {
		if h.entries[i].ID() == id && id > 0 {
			h.entries[i] = fn(h.entries[i].Clone())
			changed = true
		}
	}
	return changed
}

// Snapshot copies the history into its redirect-surviving form
func (h *RecipeHistory) Snapshot() Snapshot {
	out := Snapshot{History: make([]recipe.Result, len(h.entries)), CurrentIndex: h.current}
	for i, r := range h.entries {
		out.History[i] = r.Clone()
	}
	return out
}

// Restore replaces the whole history with a snapshot. An invalid cursor is clamped.
func (h *RecipeHistory) Restore(s Snapshot) {
	h.entries = make([]recipe.Result, len(s.History))
	h.keys = make([]uint64, len(s.History))
	for i, r := range s.History {
		h.entries[i] = r.Clone()
		h.keys[i] = h.newKey()
	}
	switch {
	case len(h.entries) == 0:
		h.current = -1
	case s.CurrentIndex < 0:
		h.current = 0
	case s.CurrentIndex >= len(h.entries):
		h.current = len(h.entries) - 1
	default:
		h.current = s.CurrentIndex
	}
}

// Snapshot is the part of a session that survives an external login redirect
type Snapshot struct {
	History      []recipe.Result `json:"recipeHistory"`
	CurrentIndex int             `json:"currentIndex"`
}
