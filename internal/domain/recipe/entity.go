package recipe

import (
	"time"
)

// Result is one generated recipe. It is immutable once created: every method that
// changes it returns a modified copy.
type Result struct {
	DishName        string          `json:"dishName"`
	Comment         string          `json:"comment"`
	IngredientsList string          `json:"ingredientsList"`
	EasyRecipe      string          `json:"easyRecipe"`
	GourmetRecipe   string          `json:"gourmetRecipe"`
	SimilarRecipes  []SimilarRecipe `json:"similarRecipes"`
	ReferenceLinks  []ReferenceLink `json:"referenceLinks"`
	ImageURL        string          `json:"imageUrl,omitempty"`

	// Identity is set only once the recipe has been persisted
	Identity *Identity `json:"identity,omitempty"`
	Stats    *Stats    `json:"stats,omitempty"`
}

// SimilarRecipe is an alternative dish the user can generate instead
type SimilarRecipe struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// ReferenceLink points at an external page about the dish
type ReferenceLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Identity is the datastore identity of a persisted recipe
type Identity struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Persisted reports whether the recipe has a datastore identity
func (r Result) Persisted() bool {
	return r.Identity != nil && r.Identity.ID > 0
}

// ID returns the persisted id or 0
func (r Result) ID() int64 {
	if r.Identity == nil {
		return 0
	}
	return r.Identity.ID
}

// Clone returns a deep copy
func (r Result) Clone() Result {
	out := r
	if r.SimilarRecipes != nil {
		out.SimilarRecipes = append([]SimilarRecipe(nil), r.SimilarRecipes...)
	}
	if r.ReferenceLinks != nil {
		out.ReferenceLinks = append([]ReferenceLink(nil), r.ReferenceLinks...)
	}
	if r.Identity != nil {
		id := *r.Identity
		out.Identity = &id
	}
	if r.Stats != nil {
		s := *r.Stats
		out.Stats = &s
	}
	return out
}

// WithImage returns a copy carrying the image URL
func (r Result) WithImage(url string) Result {
	out := r.Clone()
	out.ImageURL = url
	return out
}

// WithIdentity returns a copy carrying the datastore identity and zeroed stats
func (r Result) WithIdentity(id Identity) Result {
	out := r.Clone()
	out.Identity = &id
	if out.Stats == nil {
		out.Stats = &Stats{}
	}
	return out
}

// WithStats returns a copy carrying the given aggregates
func (r Result) WithStats(s Stats) Result {
	out := r.Clone()
	out.Stats = &s
	return out
}

// CurrentStats returns the aggregates, zero valued when unknown
func (r Result) CurrentStats() Stats {
	if r.Stats == nil {
		return Stats{}
	}
	return *r.Stats
}

// Validate checks the fields the generator must always return
func (r Result) Validate() error {
	if r.DishName == "" {
		return ErrMissingDishName
	}
	return nil
}

// FeedItem projects the recipe for list display
func (r Result) FeedItem() FeedItem {
	item := FeedItem{
		DishName: r.DishName,
		ImageURL: r.ImageURL,
		Comment:  r.Comment,
		Stats:    r.CurrentStats(),
	}
	if r.Identity != nil {
		item.ID = r.Identity.ID
		item.CreatedAt = r.Identity.CreatedAt
	}
	return item
}
