package gorm

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

// RecipeRepository implements outbound.RecipeStore using GORM. It runs on both the
// sqlite and the postgres dialector.
type RecipeRepository struct {
	db *gorm.DB
}

var _ outbound.RecipeStore = (*RecipeRepository)(nil)

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// SaveRecipe inserts a recipe and returns its new identity
func (r *RecipeRepository) SaveRecipe(ctx context.Context, res recipe.Result) (*recipe.Identity, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	model := RecipeToModel(res)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, apperrors.NewDatabaseError("save recipe", err)
	}
	return &recipe.Identity{ID: model.ID, CreatedAt: model.CreatedAt}, nil
}

// FetchRecipeByID finds a recipe by ID
func (r *RecipeRepository) FetchRecipeByID(ctx context.Context, id int64) (*recipe.Result, error) {
	var model RecipeModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, recipe.ErrRecipeNotFound
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("fetch recipe", err)
	}
	return ModelToRecipe(&model), nil
}

// FetchFeed returns one page of feed items ordered in SQL
func (r *RecipeRepository) FetchFeed(ctx context.Context, q recipe.FeedQuery) ([]recipe.FeedItem, error) {
	var models []RecipeModel

	query := r.db.WithContext(ctx).
		Model(&RecipeModel{}).
		Select("id", "dish_name", "comment", "image_url", "rating_sum", "rating_count",
			"vote_success", "vote_fail", "comment_count", "download_count", "created_at")

	if term := strings.TrimSpace(q.Search); term != "" {
		query = query.Where(`LOWER(dish_name) LIKE ? ESCAPE '\'`, containsPattern(term))
	}

	for _, order := range orderFor(q.Sort) {
		query = query.Order(order)
	}

	if err := query.Offset(q.Offset()).Limit(q.Limit()).Find(&models).Error; err != nil {
		return nil, apperrors.NewDatabaseError("fetch feed", err)
	}

	items := make([]recipe.FeedItem, len(models))
	for i := range models {
		items[i] = ModelToFeedItem(&models[i])
	}
	return items, nil
}

// SupportsSort is true for every known key
func (r *RecipeRepository) SupportsSort(k recipe.SortKey) bool {
	return k.Valid()
}

func orderFor(k recipe.SortKey) []clause.OrderByColumn {
	col := func(name string) clause.OrderByColumn {
		return clause.OrderByColumn{Column: clause.Column{Name: name}, Desc: true}
	}
	var cols []clause.OrderByColumn
	switch k {
	case recipe.SortRating:
		cols = append(cols,
			clause.OrderByColumn{Column: clause.Column{
				Name: "CASE WHEN rating_count = 0 THEN 0 ELSE rating_sum * 1.0 / rating_count END",
				Raw:  true,
			}, Desc: true},
			col("rating_count"))
	case recipe.SortSuccess:
		cols = append(cols, col("vote_success"))
	case recipe.SortComments:
		cols = append(cols, col("comment_count"))
	case recipe.SortPopular:
		cols = append(cols, col("download_count"))
	}
	return append(cols, col("created_at"), col("id"))
}

// IncrementDownloadCount bumps the download counter
func (r *RecipeRepository) IncrementDownloadCount(ctx context.Context, id int64) error {
	return r.updateCounters(ctx, "increment download count", id, map[string]interface{}{
		"download_count": gorm.Expr("download_count + 1"),
	})
}

// UpdateRating adds one rating of score
func (r *RecipeRepository) UpdateRating(ctx context.Context, id int64, score int) error {
	if err := recipe.ValidateScore(score); err != nil {
		return err
	}
	return r.updateCounters(ctx, "update rating", id, map[string]interface{}{
		"rating_sum":   gorm.Expr("rating_sum + ?", score),
		"rating_count": gorm.Expr("rating_count + 1"),
	})
}

// UpdateVoteCounts applies vote deltas atomically, never letting a counter go negative
func (r *RecipeRepository) UpdateVoteCounts(ctx context.Context, id int64, successDelta, failDelta int) error {
	if successDelta == 0 && failDelta == 0 {
		return nil
	}
	greatest := r.greatestFunc()
	return r.updateCounters(ctx, "update vote counts", id, map[string]interface{}{
		"vote_success": gorm.Expr(greatest+"(vote_success + ?, 0)", successDelta),
		"vote_fail":    gorm.Expr(greatest+"(vote_fail + ?, 0)", failDelta),
	})
}

// greatestFunc names the two-argument max function of the dialect
func (r *RecipeRepository) greatestFunc() string {
	if r.db.Dialector.Name() == "sqlite" {
		return "MAX"
	}
	return "GREATEST"
}

func (r *RecipeRepository) updateCounters(ctx context.Context, op string, id int64, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&RecipeModel{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return apperrors.NewDatabaseError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return recipe.ErrRecipeNotFound
	}
	return nil
}

// FetchComments lists comments oldest first
func (r *RecipeRepository) FetchComments(ctx context.Context, id int64) ([]recipe.Comment, error) {
	var models []CommentModel
	err := r.db.WithContext(ctx).
		Where("recipe_id = ?", id).
		Order("created_at ASC").
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.NewDatabaseError("fetch comments", err)
	}
	comments := make([]recipe.Comment, len(models))
	for i := range models {
		comments[i] = ModelToComment(&models[i])
	}
	return comments, nil
}

// AddComment inserts the comment and bumps the recipe's comment counter in one transaction
func (r *RecipeRepository) AddComment(ctx context.Context, c recipe.Comment) (*recipe.Comment, error) {
	model := CommentToModel(c)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&RecipeModel{}).
			Where("id = ?", c.RecipeID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return recipe.ErrRecipeNotFound
		}
		return tx.Create(model).Error
	})
	if errors.Is(err, recipe.ErrRecipeNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("add comment", err)
	}
	out := ModelToComment(model)
	return &out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches term literally anywhere in a lowercased column
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
