package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
)

// fakeGemini answers generateContent calls with one candidate holding parts
func fakeGemini(t *testing.T, parts func(model string) []map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := strings.LastIndex(r.URL.Path, "/models/")
		j := strings.LastIndex(r.URL.Path, ":generateContent")
		if i < 0 || j < 0 {
			http.NotFound(w, r)
			return
		}
		model := r.URL.Path[i+len("/models/") : j]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{"role": "model", "parts": parts(model)},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cli, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL + "/"},
	})
	require.NoError(t, err)
	return &Client{
		cli:        cli,
		textModel:  "text-model",
		imageModel: "image-model",
		retries:    1,
		backoff:    time.Millisecond,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		now:        time.Now,
		logger:     zap.NewNop(),
	}
}

func TestClient_GenerateRecipe(t *testing.T) {
	srv := fakeGemini(t, func(string) []map[string]interface{} {
		return []map[string]interface{}{{"text": `{"dishName": "유자 크림 우동", "comment": "상큼"}`}}
	})
	c := newTestClient(t, srv.URL)

	r, err := c.GenerateRecipe(context.Background(), session.DefaultChoices(), false)
	require.NoError(t, err)
	assert.Equal(t, "유자 크림 우동", r.DishName)
	assert.NotNil(t, r.SimilarRecipes)
}

func TestClient_GenerateRecipeRejectsNamelessReply(t *testing.T) {
	srv := fakeGemini(t, func(string) []map[string]interface{} {
		return []map[string]interface{}{{"text": `{"comment": "?"}`}}
	})
	_, err := newTestClient(t, srv.URL).GenerateRecipe(context.Background(), session.DefaultChoices(), false)
	assert.ErrorIs(t, err, recipe.ErrMissingDishName)
}

func TestClient_GenerateDishImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := fakeGemini(t, func(model string) []map[string]interface{} {
		assert.Equal(t, "image-model", model)
		return []map[string]interface{}{
			{"text": "here you go"},
			{"inlineData": map[string]interface{}{"mimeType": "image/png", "data": base64.StdEncoding.EncodeToString(png)}},
		}
	})

	img, err := newTestClient(t, srv.URL).GenerateDishImage(context.Background(), "유자 크림 우동")
	require.NoError(t, err)
	assert.Equal(t, png, img.Data)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestClient_GenerateDishImageWithoutImage(t *testing.T) {
	srv := fakeGemini(t, func(string) []map[string]interface{} {
		return []map[string]interface{}{{"text": "I cannot draw that"}}
	})
	_, err := newTestClient(t, srv.URL).GenerateDishImage(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestClient_Ideas(t *testing.T) {
	srv := fakeGemini(t, func(string) []map[string]interface{} {
		return []map[string]interface{}{{"text": `{"items": [{"name": "참외", "desc": "아삭"}], "subIngredients": ["양파"], "sauces": ["고추장"]}`}}
	})
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	items := c.FetchSeasonalIngredients(ctx, nil)
	require.Len(t, items, 1)
	assert.Equal(t, "참외", items[0].Name)

	s := c.FetchSuggestions(ctx, "두부")
	assert.Equal(t, []string{"고추장"}, s.Sauces)
}

func TestClient_IdeasSwallowErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"code": 500, "message": "boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	assert.Empty(t, c.FetchConvenienceTopics(context.Background(), nil, recipe.CategoryMeal))
	assert.Equal(t, []string{}, c.FetchSuggestions(context.Background(), "x").SubIngredients)
}
