package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
)

// Item counts requested from the idea prompts
const (
	SeasonalCount    = 8
	ConvenienceCount = 6
	SuggestionCount  = 6
)

// RegenerateInstruction asks the model not to repeat itself
const RegenerateInstruction = "이전과 다른 새로운 레시피를 제안해줘."

// RecipeSystemPrompt pins the reply format for providers that take a system message
const RecipeSystemPrompt = `You are a fusion chef. Respond with ONLY a valid JSON object:
{"dishName": "", "comment": "", "ingredientsList": "<ul><li>...</li></ul>", "easyRecipe": "",
 "gourmetRecipe": "", "similarRecipes": [{"title": "", "reason": ""}],
 "referenceLinks": [{"title": "", "url": ""}]}
No additional text, explanations, or formatting.`

// RecipePrompt builds the generation prompt from the user's choices
func RecipePrompt(c session.UserChoices, isRegenerate bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Mission] %s 모드 레시피 생성.\n", c.Mode)
	fmt.Fprintf(&b, "- 재료: %s\n", c.Ingredients)
	fmt.Fprintf(&b, "- 양념: %s\n", strings.Join(c.Sauces, ", "))
	fmt.Fprintf(&b, "- 스타일: %s\n", c.Cuisine)
	fmt.Fprintf(&b, "- 대상: %s\n", c.Partner)
	fmt.Fprintf(&b, "- 테마: %s\n", c.Theme)
	if len(c.Tools) > 0 {
		fmt.Fprintf(&b, "- 조리도구: %s\n", strings.Join(c.Tools, ", "))
	}
	fmt.Fprintf(&b, "- 난이도: %s\n", c.Level)
	if isRegenerate {
		b.WriteString(RegenerateInstruction + "\n")
	}
	b.WriteString("모든 응답은 한국어로 하고, ingredientsList는 반드시 <ul><li> 태그를 사용한 HTML 형식으로 작성해줘.\n")
	b.WriteString("easyRecipe와 gourmetRecipe는 상세한 단계별 조리법을 포함해줘.")
	return b.String()
}

// ImagePrompt describes the dish photo
func ImagePrompt(dishName string) string {
	return fmt.Sprintf("Professional food photography of %s. Top-down view, studio lighting, appetizing, high resolution, vibrant colors. No text.", dishName)
}

// SuggestionPrompt asks for side ingredients and sauces
func SuggestionPrompt(ingredients string) string {
	return fmt.Sprintf(`재료: "%s". 이 재료들과 어울리는 부재료 %d개, 양념 %d개를 한국어로 추천해줘. JSON 형식 { "subIngredients": [], "sauces": [] } 으로 반환해.`,
		ingredients, SuggestionCount, SuggestionCount)
}

// SeasonalPrompt asks for this month's produce, skipping what was already offered
func SeasonalPrompt(month time.Month, exclude []string) string {
	return fmt.Sprintf(`대한민국의 %d월에 가장 맛있는 제철 식재료 %d개를 알려줘.
이미 추천한 재료들(%s)은 제외해줘.
각 재료별로 한 줄 요약(맛이나 영양)을 포함해줘. JSON 형식 { "items": [{ "name", "desc" }] } 으로만 응답해줘.`,
		int(month), SeasonalCount, strings.Join(exclude, ", "))
}

// ConveniencePrompt asks for convenience-store combos fitting the time of day
func ConveniencePrompt(now time.Time, category recipe.Category, exclude []string) string {
	return fmt.Sprintf(`편의점 재료 꿀조합 레시피 %d개를 추천해줘. 카테고리: %s. 시간대: %s. 제외할 재료: %s. JSON 형식 { "items": [{ "name", "desc" }] } 로 반환해.`,
		ConvenienceCount, category.Label(), TimeOfDay(now.Hour()), strings.Join(exclude, ", "))
}

// TimeOfDay maps an hour to the meal slot used in convenience prompts
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 11:
		return "아침"
	case hour < 14 && hour >= 11:
		return "점심"
	case hour < 17 && hour >= 14:
		return "오후"
	case hour < 22 && hour >= 17:
		return "저녁"
	default:
		return "야식"
	}
}
