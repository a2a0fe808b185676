// Package mock provides deterministic generation adapters for development and tests
package mock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

// ErrImagesUnsupported is returned by NoImages
var ErrImagesUnsupported = errors.New("image generation is not available for this provider")

// Generator returns canned recipes built from the choices, so the full wizard runs
// without a model. Each call increments a counter that goes into the dish name.
type Generator struct {
	mu    sync.Mutex
	calls int
}

var (
	_ outbound.TextGenerator  = (*Generator)(nil)
	_ outbound.ImageGenerator = (*Generator)(nil)
	_ outbound.IdeaService    = (*Generator)(nil)
)

// NewGenerator creates a mock generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateRecipe builds a recipe from the first ingredient and the cuisine
func (g *Generator) GenerateRecipe(ctx context.Context, c session.UserChoices, isRegenerate bool) (*recipe.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()

	main := "오늘의 재료"
	if items := c.IngredientList(); len(items) > 0 {
		main = items[0]
	}
	name := fmt.Sprintf("%s %s", c.Cuisine, main)
	if isRegenerate {
		name = fmt.Sprintf("%s #%d", name, n)
	}

	items := make([]string, 0, len(c.IngredientList())+len(c.Sauces))
	for _, i := range append(c.IngredientList(), c.Sauces...) {
		items = append(items, "<li>"+i+"</li>")
	}

	return &recipe.Result{
		DishName:        strings.TrimSpace(name),
		Comment:         fmt.Sprintf("%s와 함께하는 %s 요리", c.Partner, c.Theme),
		IngredientsList: "<ul>" + strings.Join(items, "") + "</ul>",
		EasyRecipe:      "1. 재료를 손질한다\n2. 볶는다\n3. 담아낸다",
		GourmetRecipe:   "1. 재료를 숙성한다\n2. 저온으로 익힌다\n3. 소스를 곁들인다",
		SimilarRecipes:  []recipe.SimilarRecipe{{Title: main + " 덮밥", Reason: "같은 재료로 한 그릇"}},
		ReferenceLinks:  []recipe.ReferenceLink{},
	}, nil
}

// GenerateDishImage returns a 1x1 PNG
func (g *Generator) GenerateDishImage(ctx context.Context, dishName string) (*outbound.GeneratedImage, error) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 0xf9, G: 0x73, B: 0x16, A: 0xff})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &outbound.GeneratedImage{Data: buf.Bytes(), MIMEType: "image/png"}, nil
}

// FetchSuggestions returns fixed side ingredients and sauces
func (g *Generator) FetchSuggestions(ctx context.Context, ingredients string) recipe.Suggestions {
	return recipe.Suggestions{
		SubIngredients: []string{"양파", "대파", "마늘", "버섯", "계란", "치즈"},
		Sauces:         []string{"간장", "고추장", "굴소스", "버터", "참기름", "올리브유"},
	}
}

// FetchSeasonalIngredients returns fixed produce minus the excluded names
func (g *Generator) FetchSeasonalIngredients(ctx context.Context, exclude []string) []recipe.Idea {
	return without([]recipe.Idea{
		{Name: "냉이", Desc: "향긋한 봄나물"},
		{Name: "달래", Desc: "알싸한 맛"},
		{Name: "주꾸미", Desc: "쫄깃한 제철 해산물"},
		{Name: "딸기", Desc: "새콤달콤"},
		{Name: "두릅", Desc: "쌉싸름한 봄순"},
		{Name: "바지락", Desc: "시원한 국물"},
		{Name: "쑥", Desc: "향이 진한 나물"},
		{Name: "도다리", Desc: "담백한 흰살생선"},
	}, exclude)
}

// FetchConvenienceTopics returns fixed combos minus the excluded names
func (g *Generator) FetchConvenienceTopics(ctx context.Context, exclude []string, category recipe.Category) []recipe.Idea {
	if category == recipe.CategorySnack {
		return without([]recipe.Idea{
			{Name: "초코파이 아이스크림", Desc: "얼려 먹는 디저트"},
			{Name: "콘치즈 과자", Desc: "전자레인지 30초"},
		}, exclude)
	}
	return without([]recipe.Idea{
		{Name: "마크정식", Desc: "떡볶이와 스파게티의 만남"},
		{Name: "참치마요 컵밥", Desc: "든든한 한 끼"},
		{Name: "불닭 치즈 김밥", Desc: "매콤 고소"},
	}, exclude)
}

func without(ideas []recipe.Idea, exclude []string) []recipe.Idea {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}
	out := make([]recipe.Idea, 0, len(ideas))
	for _, i := range ideas {
		if _, ok := skip[i.Name]; !ok {
			out = append(out, i)
		}
	}
	return out
}

// NoImages is the ImageGenerator of providers without an image model
type NoImages struct{}

// GenerateDishImage always fails
func (NoImages) GenerateDishImage(context.Context, string) (*outbound.GeneratedImage, error) {
	return nil, ErrImagesUnsupported
}
