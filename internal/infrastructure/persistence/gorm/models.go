// Package gorm provides the GORM models and the RecipeStore built on them
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
)

// RecipeModel is one generated recipe with its engagement counters
type RecipeModel struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	DishName string `gorm:"type:varchar(255);not null;index"`
	Comment  string `gorm:"type:text"`
	ImageURL string `gorm:"column:image_url;type:text"`

	// FullJSON holds the complete recipe body as generated
	FullJSON RecipeBody `gorm:"column:full_json;type:text;not null"`

	RatingSum     int64 `gorm:"column:rating_sum;not null;default:0"`
	RatingCount   int64 `gorm:"column:rating_count;not null;default:0"`
	VoteSuccess   int64 `gorm:"column:vote_success;not null;default:0;index"`
	VoteFail      int64 `gorm:"column:vote_fail;not null;default:0"`
	CommentCount  int64 `gorm:"column:comment_count;not null;default:0;index"`
	DownloadCount int64 `gorm:"column:download_count;not null;default:0;index"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Comments []CommentModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// CommentModel is one comment on a recipe
type CommentModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	RecipeID  int64  `gorm:"not null;index"`
	UserID    string `gorm:"type:varchar(128);not null"`
	UserEmail string `gorm:"type:varchar(255)"`
	Content   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (RecipeModel) TableName() string {
	return "recipes"
}

func (CommentModel) TableName() string {
	return "recipe_comments"
}

// RecipeBody stores a recipe.Result as JSON text
type RecipeBody recipe.Result

// Scan implements sql.Scanner
func (b *RecipeBody) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*b = RecipeBody{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RecipeBody", value)
	}
	return json.Unmarshal(data, (*recipe.Result)(b))
}

// Value implements driver.Valuer. Identity and stats live in their own columns.
func (b RecipeBody) Value() (driver.Value, error) {
	r := recipe.Result(b)
	r.Identity = nil
	r.Stats = nil
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
