package recipe

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Rating bounds
const (
	MinScore = 1
	MaxScore = 5

	MaxCommentLength = 500
)

// Stats holds the engagement aggregates of a persisted recipe
type Stats struct {
	RatingSum     int64 `json:"rating_sum"`
	RatingCount   int64 `json:"rating_count"`
	VoteSuccess   int64 `json:"vote_success"`
	VoteFail      int64 `json:"vote_fail"`
	CommentCount  int64 `json:"comment_count"`
	DownloadCount int64 `json:"download_count"`
}

// MeanRating returns sum/count, 0 when nobody rated yet
func (s Stats) MeanRating() float64 {
	if s.RatingCount == 0 {
		return 0
	}
	return float64(s.RatingSum) / float64(s.RatingCount)
}

// AverageRating formats the mean with one decimal, "0.0" when unrated
func (s Stats) AverageRating() string {
	return fmt.Sprintf("%.1f", s.MeanRating())
}

// ApplyVote adds a vote delta, flooring each bucket at zero
func (s Stats) ApplyVote(d VoteDelta) Stats {
	s.VoteSuccess = floorZero(s.VoteSuccess + int64(d.Success))
	s.VoteFail = floorZero(s.VoteFail + int64(d.Fail))
	return s
}

// ApplyRating records one more rating
func (s Stats) ApplyRating(score int) Stats {
	s.RatingSum += int64(score)
	s.RatingCount++
	return s
}

func floorZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// VoteDelta is the change sent to the datastore for one vote action.
// The only non-zero values are (-1,0) (1,0) (0,-1) (0,1) (1,-1) (-1,1).
type VoteDelta struct {
	Success int `json:"success_delta"`
	Fail    int `json:"fail_delta"`
}

// IsZero reports a no-op delta
func (d VoteDelta) IsZero() bool {
	return d.Success == 0 && d.Fail == 0
}

// ValidateScore checks a star rating
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return ErrInvalidScore
	}
	return nil
}

// Comment is a user comment on a persisted recipe
type Comment struct {
	ID        int64     `json:"id"`
	RecipeID  int64     `json:"recipe_id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Text      string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeCommentText trims and bounds comment text
func NormalizeCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyComment
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return "", ErrCommentTooLong
	}
	return text, nil
}

// Idea is a named pick offered by the seasonal or convenience steps
type Idea struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// Suggestions are side ingredients and sauces proposed for the typed ingredients
type Suggestions struct {
	SubIngredients []string `json:"subIngredients"`
	Sauces         []string `json:"sauces"`
}

// Category narrows convenience-store topics
type Category string

const (
	CategoryMeal  Category = "meal"
	CategorySnack Category = "snack"
)

// Valid reports whether the category is known
func (c Category) Valid() bool {
	return c == CategoryMeal || c == CategorySnack
}

// Label returns the prompt label for the category
func (c Category) Label() string {
	if c == CategorySnack {
		return "간식"
	}
	return "식사"
}
