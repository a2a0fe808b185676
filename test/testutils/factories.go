// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/domain/user"
)

// RecipeFactory provides methods to create test recipes
type RecipeFactory struct {
	faker  *gofakeit.Faker
	nextID atomic.Int64
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker: gofakeit.New(seed),
	}
}

// Result builds an unsaved generator result
func (f *RecipeFactory) Result() recipe.Result {
	dish := f.faker.Dessert() + " " + f.faker.Noun()
	return recipe.Result{
		DishName:        dish,
		Comment:         f.faker.Sentence(8),
		IngredientsList: strings.Join([]string{f.faker.Fruit(), f.faker.Vegetable(), f.faker.Vegetable()}, ", "),
		EasyRecipe:      f.faker.Paragraph(1, 3, 8, "\n"),
		GourmetRecipe:   f.faker.Paragraph(1, 4, 10, "\n"),
		SimilarRecipes: []recipe.SimilarRecipe{
			{Title: f.faker.Dinner(), Reason: f.faker.Sentence(5)},
			{Title: f.faker.Lunch(), Reason: f.faker.Sentence(5)},
		},
		ReferenceLinks: []recipe.ReferenceLink{
			{Title: dish, URL: f.faker.URL()},
		},
	}
}

// Persisted builds a saved recipe with a fresh id and random counters
func (f *RecipeFactory) Persisted() recipe.Result {
	return f.Result().
		WithIdentity(recipe.Identity{ID: f.nextID.Add(1), CreatedAt: f.faker.DateRange(time.Now().AddDate(0, -1, 0), time.Now())}).
		WithStats(f.Stats())
}

// Stats builds consistent random counters
func (f *RecipeFactory) Stats() recipe.Stats {
	count := int64(f.faker.IntRange(0, 20))
	return recipe.Stats{
		RatingSum:     count * int64(f.faker.IntRange(recipe.MinScore, recipe.MaxScore)),
		RatingCount:   count,
		VoteSuccess:   int64(f.faker.IntRange(0, 50)),
		VoteFail:      int64(f.faker.IntRange(0, 50)),
		CommentCount:  int64(f.faker.IntRange(0, 30)),
		DownloadCount: int64(f.faker.IntRange(0, 100)),
	}
}

// FeedItems builds n persisted items, newest first
func (f *RecipeFactory) FeedItems(n int) []recipe.FeedItem {
	now := time.Now()
	items := make([]recipe.FeedItem, n)
	for i := range items {
		r := f.Result().
			WithIdentity(recipe.Identity{ID: f.nextID.Add(1), CreatedAt: now.Add(-time.Duration(i) * time.Minute)}).
			WithStats(f.Stats())
		items[i] = r.FeedItem()
	}
	return items
}

// Comment builds a comment on the recipe
func (f *RecipeFactory) Comment(recipeID int64) recipe.Comment {
	return recipe.Comment{
		ID:        f.nextID.Add(1),
		RecipeID:  recipeID,
		UserID:    f.faker.UUID(),
		UserEmail: f.faker.Email(),
		Text:      f.faker.Sentence(10),
		CreatedAt: time.Now(),
	}
}

// Ideas builds n named picks
func (f *RecipeFactory) Ideas(n int) []recipe.Idea {
	out := make([]recipe.Idea, n)
	for i := range out {
		out[i] = recipe.Idea{Name: fmt.Sprintf("%s %d", f.faker.Vegetable(), i), Desc: f.faker.Sentence(4)}
	}
	return out
}

// Choices builds a completed fridge-mode selection
func (f *RecipeFactory) Choices() session.UserChoices {
	c := session.DefaultChoices()
	c.Ingredients = strings.Join([]string{f.faker.Vegetable(), f.faker.Fruit()}, ", ")
	c.Cuisine = session.Cuisines[f.faker.IntRange(0, len(session.Cuisines)-1)]
	c.Partner = session.Partners[f.faker.IntRange(0, len(session.Partners)-1)]
	c.Theme = session.Themes[f.faker.IntRange(0, len(session.Themes)-1)]
	c.Level = session.Levels[f.faker.IntRange(0, len(session.Levels)-1)]
	return c
}

// UserFactory creates signed-in users
type UserFactory struct {
	faker *gofakeit.Faker
}

// NewUserFactory creates a new user factory
func NewUserFactory(seed int64) *UserFactory {
	return &UserFactory{faker: gofakeit.New(seed)}
}

// User builds a valid user
func (f *UserFactory) User() *user.User {
	u, err := user.New(f.faker.UUID(), f.faker.Email())
	if err != nil {
		panic(err)
	}
	return u
}
