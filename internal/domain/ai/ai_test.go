package ai

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
)

func TestParseSafeJSON(t *testing.T) {
	var out struct {
		A int `json:"a"`
	}

	require.NoError(t, ParseSafeJSON("```json\n{\"a\": 2}\n```", &out))
	assert.Equal(t, 2, out.A)

	require.NoError(t, ParseSafeJSON("Sure! Here it is: {\"a\": 3} enjoy", &out))
	assert.Equal(t, 3, out.A)

	assert.ErrorIs(t, ParseSafeJSON("   ", &out), ErrNoJSON)
	assert.ErrorIs(t, ParseSafeJSON("no json here", &out), ErrNoJSON)
}

func TestParseRecipe(t *testing.T) {
	r, err := ParseRecipe(`{"dishName": " 김치 파스타 ", "ingredientsList": "<ul><li>김치</li></ul>"}`)
	require.NoError(t, err)
	assert.Equal(t, "김치 파스타", r.DishName)
	assert.NotNil(t, r.SimilarRecipes)
	assert.NotNil(t, r.ReferenceLinks)

	_, err = ParseRecipe(`{"dishName": ""}`)
	assert.ErrorIs(t, err, recipe.ErrMissingDishName)
}

func TestParseIdeasAndSuggestions(t *testing.T) {
	ideas := ParseIdeas(`{"items": [{"name": "딸기", "desc": "달콤"}]}`)
	require.Len(t, ideas, 1)
	assert.Equal(t, "딸기", ideas[0].Name)

	assert.Empty(t, ParseIdeas("garbage"))
	assert.NotNil(t, ParseIdeas("garbage"))

	s := ParseSuggestions(`{"sauces": ["간장"]}`)
	assert.Equal(t, []string{"간장"}, s.Sauces)
	assert.NotNil(t, s.SubIngredients)
	assert.Equal(t, EmptySuggestions(), ParseSuggestions(""))
}

func TestTimeOfDay(t *testing.T) {
	tests := map[int]string{
		0: "야식", 4: "야식", 5: "아침", 10: "아침", 11: "점심", 13: "점심",
		14: "오후", 16: "오후", 17: "저녁", 21: "저녁", 22: "야식", 23: "야식",
	}
	for hour, want := range tests {
		assert.Equal(t, want, TimeOfDay(hour), "hour %d", hour)
	}
}

func TestPrompts(t *testing.T) {
	c := session.DefaultChoices()
	c.Ingredients = "두부"
	c.Tools = []string{"에어프라이어"}

	p := RecipePrompt(c, false)
	assert.Contains(t, p, "두부")
	assert.Contains(t, p, "에어프라이어")
	assert.NotContains(t, p, RegenerateInstruction)
	assert.Contains(t, RecipePrompt(c, true), RegenerateInstruction)

	seasonal := SeasonalPrompt(time.March, []string{"냉이", "달래"})
	assert.Contains(t, seasonal, "3월")
	assert.Contains(t, seasonal, "냉이, 달래")

	night := time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)
	conv := ConveniencePrompt(night, recipe.CategorySnack, nil)
	assert.Contains(t, conv, "야식")
	assert.True(t, strings.Contains(conv, recipe.CategorySnack.Label()))
}
