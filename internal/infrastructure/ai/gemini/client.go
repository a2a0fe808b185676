// Package gemini generates recipes, dish photos and ingredient ideas with the Gemini API
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	domainai "github.com/alchemorsel/fusionchef/internal/domain/ai"
	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/ai"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

// ErrNoImage is returned when the image model answers without inline image data
var ErrNoImage = errors.New("gemini: response carried no image")

// Client implements TextGenerator, ImageGenerator and IdeaService
type Client struct {
	cli         *genai.Client
	textModel   string
	imageModel  string
	temperature float32
	retries     int
	backoff     time.Duration
	limiter     *rate.Limiter
	now         func() time.Time
	logger      *zap.Logger
}

var (
	_ outbound.TextGenerator  = (*Client)(nil)
	_ outbound.ImageGenerator = (*Client)(nil)
	_ outbound.IdeaService    = (*Client)(nil)
)

// NewClient creates a Gemini client from the ai config section
func NewClient(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	logger.Info("Gemini client initialized",
		zap.String("text_model", cfg.TextModel),
		zap.String("image_model", cfg.ImageModel))

	return &Client{
		cli:         cli,
		textModel:   cfg.TextModel,
		imageModel:  cfg.ImageModel,
		temperature: float32(cfg.Temperature),
		retries:     cfg.MaxRetries + 1,
		backoff:     cfg.RetryBackoff,
		limiter:     rate.NewLimiter(rate.Limit(5), 5),
		now:         time.Now,
		logger:      logger.Named("gemini-client"),
	}, nil
}

// generateJSON asks the text model for JSON matching schema and returns the raw text
func (c *Client) generateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
		Temperature:      genai.Ptr(c.temperature),
	}

	var text string
	err := ai.Retry(ctx, c.retries, c.backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.cli.Models.GenerateContent(ctx, c.textModel, genai.Text(prompt), cfg)
		if err != nil {
			c.logger.Warn("Gemini request failed", zap.Error(err))
			return err
		}
		text = resp.Text()
		if text == "" {
			return domainai.ErrNoJSON
		}
		return nil
	})
	return text, err
}

// GenerateRecipe generates the recipe body
func (c *Client) GenerateRecipe(ctx context.Context, choices session.UserChoices, isRegenerate bool) (*recipe.Result, error) {
	start := time.Now()
	text, err := c.generateJSON(ctx, domainai.RecipePrompt(choices, isRegenerate), recipeSchema)
	if err != nil {
		return nil, fmt.Errorf("gemini recipe generation: %w", err)
	}
	res, err := domainai.ParseRecipe(text)
	if err != nil {
		c.logger.Error("Failed to parse Gemini recipe", zap.Error(err))
		return nil, err
	}
	c.logger.Info("Recipe generated via Gemini",
		zap.String("dish_name", res.DishName),
		zap.Duration("duration", time.Since(start)))
	return &res, nil
}

// GenerateDishImage renders the dish photo and returns the first inline image part
func (c *Client) GenerateDishImage(ctx context.Context, dishName string) (*outbound.GeneratedImage, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	var img *outbound.GeneratedImage
	err := ai.Retry(ctx, c.retries, c.backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.cli.Models.GenerateContent(ctx, c.imageModel, genai.Text(domainai.ImagePrompt(dishName)), cfg)
		if err != nil {
			return err
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					mime := part.InlineData.MIMEType
					if mime == "" {
						mime = "image/png"
					}
					img = &outbound.GeneratedImage{Data: part.InlineData.Data, MIMEType: mime}
					return nil
				}
			}
		}
		return ErrNoImage
	})
	if err != nil {
		return nil, fmt.Errorf("gemini image generation: %w", err)
	}
	return img, nil
}

// FetchSuggestions never fails; errors yield empty lists
func (c *Client) FetchSuggestions(ctx context.Context, ingredients string) recipe.Suggestions {
	text, err := c.generateJSON(ctx, domainai.SuggestionPrompt(ingredients), suggestionSchema)
	if err != nil {
		c.logger.Warn("Suggestions fetch failed", zap.Error(err))
		return domainai.EmptySuggestions()
	}
	return domainai.ParseSuggestions(text)
}

// FetchSeasonalIngredients lists this month's produce
func (c *Client) FetchSeasonalIngredients(ctx context.Context, exclude []string) []recipe.Idea {
	text, err := c.generateJSON(ctx, domainai.SeasonalPrompt(c.now().Month(), exclude), ideaSchema)
	if err != nil {
		c.logger.Warn("Seasonal items fetch failed", zap.Error(err))
		return []recipe.Idea{}
	}
	return domainai.ParseIdeas(text)
}

// FetchConvenienceTopics lists convenience-store combos for the current time of day
func (c *Client) FetchConvenienceTopics(ctx context.Context, exclude []string, category recipe.Category) []recipe.Idea {
	text, err := c.generateJSON(ctx, domainai.ConveniencePrompt(c.now(), category, exclude), ideaSchema)
	if err != nil {
		c.logger.Warn("Convenience topics fetch failed", zap.Error(err))
		return []recipe.Idea{}
	}
	return domainai.ParseIdeas(text)
}

// HealthCheck lists one model page to verify the key
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.cli.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1})
	return err
}
