package gorm

import (
	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
)

// RecipeToModel converts a generated recipe to a new row
func RecipeToModel(r recipe.Result) *RecipeModel {
	return &RecipeModel{
		DishName: r.DishName,
		Comment:  r.Comment,
		ImageURL: r.ImageURL,
		FullJSON: RecipeBody(r.Clone()),
	}
}

// ModelStats extracts the counters of a row
func ModelStats(m *RecipeModel) recipe.Stats {
	return recipe.Stats{
		RatingSum:     m.RatingSum,
		RatingCount:   m.RatingCount,
		VoteSuccess:   m.VoteSuccess,
		VoteFail:      m.VoteFail,
		CommentCount:  m.CommentCount,
		DownloadCount: m.DownloadCount,
	}
}

// ModelToRecipe rebuilds the full recipe with identity and stats
func ModelToRecipe(m *RecipeModel) *recipe.Result {
	r := recipe.Result(m.FullJSON)
	if r.DishName == "" {
		r.DishName = m.DishName
	}
	if r.ImageURL == "" {
		r.ImageURL = m.ImageURL
	}
	out := r.WithIdentity(recipe.Identity{ID: m.ID, CreatedAt: m.CreatedAt}).WithStats(ModelStats(m))
	return &out
}

// ModelToFeedItem projects a row for the feed
func ModelToFeedItem(m *RecipeModel) recipe.FeedItem {
	return recipe.FeedItem{
		ID:        m.ID,
		DishName:  m.DishName,
		ImageURL:  m.ImageURL,
		Comment:   m.Comment,
		Stats:     ModelStats(m),
		CreatedAt: m.CreatedAt,
	}
}

// CommentToModel converts a domain comment to a new row
func CommentToModel(c recipe.Comment) *CommentModel {
	return &CommentModel{
		RecipeID:  c.RecipeID,
		UserID:    c.UserID,
		UserEmail: c.UserEmail,
		Content:   c.Text,
	}
}

// ModelToComment converts a row to a domain comment
func ModelToComment(m *CommentModel) recipe.Comment {
	return recipe.Comment{
		ID:        m.ID,
		RecipeID:  m.RecipeID,
		UserID:    m.UserID,
		UserEmail: m.UserEmail,
		Text:      m.Content,
		CreatedAt: m.CreatedAt,
	}
}
