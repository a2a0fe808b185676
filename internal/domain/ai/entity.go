// Package ai defines the provider-neutral side of recipe generation: prompts and
// the JSON shapes models are asked to return.
package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
)

// ProviderType selects the generation backend
type ProviderType string

const (
	ProviderTypeGemini ProviderType = "gemini"
	ProviderTypeOllama ProviderType = "ollama"
	ProviderTypeMock   ProviderType = "mock"
)

// ErrNoJSON is returned when a model reply holds no parseable JSON
var ErrNoJSON = errors.New("no valid JSON found in model response")

var jsonSpan = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)

// ParseSafeJSON decodes the first object or array span of a model reply into v.
// Models sometimes wrap JSON in markdown fences or prose.
func ParseSafeJSON(text string, v interface{}) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNoJSON
	}
	if m := jsonSpan.FindString(text); m != "" {
		if err := json.Unmarshal([]byte(m), v); err == nil {
			return nil
		}
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	return nil
}

// RecipePayload is the JSON a model returns for a recipe
type RecipePayload struct {
	DishName        string                 `json:"dishName"`
	Comment         string                 `json:"comment"`
	IngredientsList string                 `json:"ingredientsList"`
	EasyRecipe      string                 `json:"easyRecipe"`
	GourmetRecipe   string                 `json:"gourmetRecipe"`
	SimilarRecipes  []recipe.SimilarRecipe `json:"similarRecipes"`
	ReferenceLinks  []recipe.ReferenceLink `json:"referenceLinks"`
}

// ToResult converts the payload, failing when the dish name is missing
func (p RecipePayload) ToResult() (recipe.Result, error) {
	r := recipe.Result{
		DishName:        strings.TrimSpace(p.DishName),
		Comment:         p.Comment,
		IngredientsList: p.IngredientsList,
		EasyRecipe:      p.EasyRecipe,
		GourmetRecipe:   p.GourmetRecipe,
		SimilarRecipes:  p.SimilarRecipes,
		ReferenceLinks:  p.ReferenceLinks,
	}
	if r.SimilarRecipes == nil {
		r.SimilarRecipes = []recipe.SimilarRecipe{}
	}
	if r.ReferenceLinks == nil {
		r.ReferenceLinks = []recipe.ReferenceLink{}
	}
	return r, r.Validate()
}

// ParseRecipe extracts a recipe from a raw model reply
func ParseRecipe(text string) (recipe.Result, error) {
	var p RecipePayload
	if err := ParseSafeJSON(text, &p); err != nil {
		return recipe.Result{}, err
	}
	return p.ToResult()
}

// IdeaList is the JSON shape of seasonal and convenience replies
type IdeaList struct {
	Items []recipe.Idea `json:"items"`
}

// ParseIdeas extracts items, returning an empty list for anything unparseable
func ParseIdeas(text string) []recipe.Idea {
	var l IdeaList
	if err := ParseSafeJSON(text, &l); err != nil || l.Items == nil {
		return []recipe.Idea{}
	}
	return l.Items
}

// ParseSuggestions extracts suggestions, empty on failure
func ParseSuggestions(text string) recipe.Suggestions {
	var s recipe.Suggestions
	if err := ParseSafeJSON(text, &s); err != nil {
		return EmptySuggestions()
	}
	if s.SubIngredients == nil {
		s.SubIngredients = []string{}
	}
	if s.Sauces == nil {
		s.Sauces = []string{}
	}
	return s
}

// EmptySuggestions is returned whenever the suggestion call fails
func EmptySuggestions() recipe.Suggestions {
	return recipe.Suggestions{SubIngredients: []string{}, Sauces: []string{}}
}
