// Package ollama provides Ollama integration for local recipe generation.
// Ollama has no image model, so the client only covers text and ideas.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	domainai "github.com/alchemorsel/fusionchef/internal/domain/ai"
	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/ai"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

const ideaSystemPrompt = "You are a Korean food assistant. Respond with ONLY valid JSON, no prose."

// Client implements TextGenerator and IdeaService using the Ollama chat API
type Client struct {
	baseURL     string
	model       string
	temperature float64
	retries     int
	backoff     time.Duration
	client      *http.Client
	now         func() time.Time
	logger      *zap.Logger
}

var (
	_ outbound.TextGenerator = (*Client)(nil)
	_ outbound.IdeaService   = (*Client)(nil)
)

// NewClient creates a new Ollama client
func NewClient(cfg config.AIConfig, logger *zap.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	logger.Info("Ollama client initialized",
		zap.String("base_url", cfg.OllamaHost),
		zap.String("model", cfg.OllamaModel),
		zap.Duration("timeout", timeout))

	return &Client{
		baseURL:     cfg.OllamaHost,
		model:       cfg.OllamaModel,
		temperature: cfg.Temperature,
		retries:     cfg.MaxRetries + 1,
		backoff:     cfg.RetryBackoff,
		client:      &http.Client{Timeout: timeout},
		now:         time.Now,
		logger:      logger.Named("ollama-client"),
	}
}

// ChatMessage is one message of a chat request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ChatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Format   string                 `json:"format,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

// ChatResponse is the non-streaming reply of /api/chat
type ChatResponse struct {
	Model        string      `json:"model"`
	Message      ChatMessage `json:"message"`
	Done         bool        `json:"done"`
	EvalCount    int         `json:"eval_count,omitempty"`
	EvalDuration int64       `json:"eval_duration,omitempty"`
}

// HealthCheck verifies the Ollama service is available
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check failed with status %d", resp.StatusCode)
	}
	return nil
}

// GenerateRecipe generates the recipe body
func (c *Client) GenerateRecipe(ctx context.Context, choices session.UserChoices, isRegenerate bool) (*recipe.Result, error) {
	var res recipe.Result
	err := ai.Retry(ctx, c.retries, c.backoff, func(ctx context.Context) error {
		text, err := c.generateChatCompletion(ctx, domainai.RecipeSystemPrompt, domainai.RecipePrompt(choices, isRegenerate))
		if err != nil {
			return err
		}
		res, err = domainai.ParseRecipe(text)
		return err
	})
	if err != nil {
		c.logger.Error("Ollama recipe generation failed", zap.Error(err))
		return nil, fmt.Errorf("ollama recipe generation: %w", err)
	}

	c.logger.Info("Recipe generated via Ollama", zap.String("dish_name", res.DishName))
	return &res, nil
}

// FetchSuggestions never fails; errors yield empty lists
func (c *Client) FetchSuggestions(ctx context.Context, ingredients string) recipe.Suggestions {
	text, err := c.generateChatCompletion(ctx, ideaSystemPrompt, domainai.SuggestionPrompt(ingredients))
	if err != nil {
		c.logger.Warn("Suggestions fetch failed", zap.Error(err))
		return domainai.EmptySuggestions()
	}
	return domainai.ParseSuggestions(text)
}

// FetchSeasonalIngredients lists this month's produce
func (c *Client) FetchSeasonalIngredients(ctx context.Context, exclude []string) []recipe.Idea {
	text, err := c.generateChatCompletion(ctx, ideaSystemPrompt, domainai.SeasonalPrompt(c.now().Month(), exclude))
	if err != nil {
		c.logger.Warn("Seasonal items fetch failed", zap.Error(err))
		return []recipe.Idea{}
	}
	return domainai.ParseIdeas(text)
}

// FetchConvenienceTopics lists convenience-store combos for the current time of day
func (c *Client) FetchConvenienceTopics(ctx context.Context, exclude []string, category recipe.Category) []recipe.Idea {
	text, err := c.generateChatCompletion(ctx, ideaSystemPrompt, domainai.ConveniencePrompt(c.now(), category, exclude))
	if err != nil {
		c.logger.Warn("Convenience topics fetch failed", zap.Error(err))
		return []recipe.Idea{}
	}
	return domainai.ParseIdeas(text)
}

// generateChatCompletion sends a chat completion request to Ollama in JSON mode
func (c *Client) generateChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := ChatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
		Format: "json",
		Options: map[string]interface{}{
			"temperature": c.temperature,
			"num_predict": 2000,
			"num_ctx":     4096,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !chatResp.Done {
		return "", fmt.Errorf("incomplete response from Ollama")
	}

	c.logger.Debug("Ollama chat completion successful",
		zap.String("model", chatResp.Model),
		zap.Int64("eval_duration", chatResp.EvalDuration),
		zap.Int("eval_count", chatResp.EvalCount))

	return chatResp.Message.Content, nil
}
