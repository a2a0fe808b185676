package recipe

import (
	"fmt"
	"sort"
	"time"
)

// DefaultPageSize is used when a feed query does not set one
const DefaultPageSize = 10

// FeedItem is the list projection of a persisted recipe. It carries no recipe body.
type FeedItem struct {
	ID        int64     `json:"id"`
	DishName  string    `json:"dish_name"`
	ImageURL  string    `json:"image_url,omitempty"`
	Comment   string    `json:"comment"`
	Stats     Stats     `json:"stats"`
	CreatedAt time.Time `json:"created_at"`
}

// AverageRating formats the item's mean rating
func (f FeedItem) AverageRating() string {
	return f.Stats.AverageRating()
}

// SortKey orders the community feed
type SortKey string

const (
	SortLatest   SortKey = "latest"
	SortRating   SortKey = "rating"
	SortSuccess  SortKey = "success"
	SortComments SortKey = "comments"
	SortPopular  SortKey = "popular"
)

// SortKeys lists every key in display order
var SortKeys = []SortKey{SortLatest, SortRating, SortSuccess, SortComments, SortPopular}

// ParseSortKey converts user input, rejecting unknown keys
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(s)
	if _, ok := comparators[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
	return k, nil
}

// Valid reports whether the key has a comparator
func (k SortKey) Valid() bool {
	_, ok := comparators[k]
	return ok
}

// Comparator reports whether a sorts before b
type Comparator func(a, b FeedItem) bool

var comparators = map[SortKey]Comparator{
	SortLatest: func(a, b FeedItem) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	},
	SortRating: func(a, b FeedItem) bool {
		am, bm := a.Stats.MeanRating(), b.Stats.MeanRating()
		if am != bm {
			return am > bm
		}
		return a.Stats.RatingCount > b.Stats.RatingCount
	},
	SortSuccess: func(a, b FeedItem) bool {
		return a.Stats.VoteSuccess > b.Stats.VoteSuccess
	},
	SortComments: func(a, b FeedItem) bool {
		return a.Stats.CommentCount > b.Stats.CommentCount
	},
	SortPopular: func(a, b FeedItem) bool {
		return a.Stats.DownloadCount > b.Stats.DownloadCount
	},
}

// ComparatorFor returns the ordering of a key
func ComparatorFor(k SortKey) (Comparator, bool) {
	c, ok := comparators[k]
	return c, ok
}

// SortItems stable-sorts items in place by key. Unknown keys leave the order untouched.
func SortItems(items []FeedItem, k SortKey) {
	less, ok := comparators[k]
	if !ok {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		return less(items[i], items[j])
	})
}

// FeedQuery selects one page of the community feed
type FeedQuery struct {
	Search   string  `json:"search"`
	Sort     SortKey `json:"sort"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// Offset returns the row offset of the page
func (q FeedQuery) Offset() int {
	return q.Page * q.Limit()
}

// Limit returns the page size with the default applied
func (q FeedQuery) Limit() int {
	if q.PageSize <= 0 {
		return DefaultPageSize
	}
	return q.PageSize
}
