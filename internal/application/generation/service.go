// Package generation runs the recipe pipeline: text, then image, then persistence.
// Only a missing recipe body is fatal; image and save failures degrade the result.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

// ConvenienceTheme replaces the theme when a convenience combo is generated
const ConvenienceTheme = "편의점 꿀조합"

// Outcome labels of the generation counter
const (
	OutcomeSaved    = "saved"
	OutcomeUnsaved  = "unsaved"
	OutcomeFailed   = "failed"
	OutcomeTimedOut = "timed_out"
)

// Config bounds each stage
type Config struct {
	Timeout      time.Duration
	ImageTimeout time.Duration
	SaveTimeout  time.Duration
}

// Outcome is a generated recipe and how far the pipeline got with it
type Outcome struct {
	Recipe recipe.Result `json:"recipe"`
	Saved  bool          `json:"saved"`
	// ImageFailed is set when the text succeeded but no photo could be attached
	ImageFailed bool `json:"image_failed"`
}

// Service orchestrates one generation
type Service struct {
	text    outbound.TextGenerator
	images  outbound.ImageGenerator
	store   outbound.ImageStore
	recipes outbound.RecipeStore
	metrics outbound.Metrics
	config  Config
	tracer  trace.Tracer
	logger  *zap.Logger
}

// NewService creates the orchestrator
func NewService(
	text outbound.TextGenerator,
	images outbound.ImageGenerator,
	store outbound.ImageStore,
	recipes outbound.RecipeStore,
	metrics outbound.Metrics,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &Service{
		text:    text,
		images:  images,
		store:   store,
		recipes: recipes,
		metrics: metrics,
		config:  cfg,
		tracer:  otel.Tracer("fusionchef/generation"),
		logger:  logger.Named("generation"),
	}
}

// ApplyOverride substitutes a picked title into a copy of the choices. Convenience
// combos become the ingredients; elsewhere the title refines the theme.
func ApplyOverride(c session.UserChoices, override *string) session.UserChoices {
	out := c.Clone()
	if override == nil || *override == "" {
		return out
	}
	title := *override
	if out.Mode == session.ModeConvenience {
		out.Ingredients = title
		out.Theme = ConvenienceTheme
		return out
	}
	out.Theme = fmt.Sprintf("%s (%s 스타일로)", out.Theme, title)
	return out
}

// Generate runs the pipeline. choices is read only.
func (s *Service) Generate(ctx context.Context, choices session.UserChoices, isRegenerate bool, override *string) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "generation.Generate", trace.WithAttributes(
		attribute.String("mode", string(choices.Mode)),
		attribute.Bool("regenerate", isRegenerate),
		attribute.Bool("override", override != nil),
	))
	defer span.End()

	effective := ApplyOverride(choices, override)

	res, err := s.generateText(ctx, effective, isRegenerate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if apperrors.GetCode(err) == apperrors.CodeGenerationTimedOut {
			s.metrics.GenerationFinished(OutcomeTimedOut)
		} else {
			s.metrics.GenerationFinished(OutcomeFailed)
		}
		return nil, err
	}

	out := &Outcome{}
	if url, ok := s.attachImage(ctx, res.DishName); ok {
		*res = res.WithImage(url)
	} else {
		out.ImageFailed = true
	}

	if id, ok := s.save(ctx, *res); ok {
		*res = res.WithIdentity(*id)
		out.Saved = true
		s.metrics.GenerationFinished(OutcomeSaved)
	} else {
		s.metrics.GenerationFinished(OutcomeUnsaved)
	}
	out.Recipe = *res

	span.SetAttributes(attribute.String("dish_name", res.DishName), attribute.Bool("saved", out.Saved))
	s.logger.Info("Recipe generated",
		zap.String("dish_name", res.DishName),
		zap.Bool("saved", out.Saved),
		zap.Bool("image", !out.ImageFailed))
	return out, nil
}

func (s *Service) generateText(ctx context.Context, c session.UserChoices, isRegenerate bool) (*recipe.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, "generation.text")
	defer span.End()

	start := time.Now()
	res, err := s.text.GenerateRecipe(ctx, c, isRegenerate)
	if err == nil && res != nil {
		err = res.Validate()
	} else if err == nil {
		err = recipe.ErrMissingDishName
	}
	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
		s.metrics.GenerationStage("text", "error", time.Since(start))
		s.logger.Error("Recipe text generation failed", zap.Bool("timed_out", timedOut), zap.Error(err))
		return nil, apperrors.NewGenerationError(timedOut, err)
	}
	s.metrics.GenerationStage("text", "ok", time.Since(start))
	return res, nil
}

// attachImage renders and stores the photo, reporting false on any failure
func (s *Service) attachImage(ctx context.Context, dishName string) (string, bool) {
	if s.images == nil || s.store == nil {
		return "", false
	}
	if s.config.ImageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ImageTimeout)
		defer cancel()
	}
	ctx, span := s.tracer.Start(ctx, "generation.image")
	defer span.End()

	start := time.Now()
	img, err := s.images.GenerateDishImage(ctx, dishName)
	if err != nil || img == nil || len(img.Data) == 0 {
		s.metrics.GenerationStage("image", "error", time.Since(start))
		s.logger.Warn("Dish image generation failed, continuing without image",
			zap.String("dish_name", dishName), zap.Error(err))
		span.RecordError(fmt.Errorf("image generation: %v", err))
		return "", false
	}
	s.metrics.GenerationStage("image", "ok", time.Since(start))

	start = time.Now()
	url, err := s.store.Put(ctx, *img)
	if err != nil {
		s.metrics.GenerationStage("upload", "error", time.Since(start))
		s.logger.Warn("Dish image upload failed, continuing without image",
			zap.String("dish_name", dishName), zap.Error(err))
		span.RecordError(err)
		return "", false
	}
	s.metrics.GenerationStage("upload", "ok", time.Since(start))
	return url, true
}

// save persists the recipe, reporting false when the store is unavailable
func (s *Service) save(ctx context.Context, r recipe.Result) (*recipe.Identity, bool) {
	if s.config.SaveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SaveTimeout)
		defer cancel()
	}
	ctx, span := s.tracer.Start(ctx, "generation.save")
	defer span.End()

	start := time.Now()
	id, err := s.recipes.SaveRecipe(ctx, r)
	if err != nil || id == nil {
		s.metrics.GenerationStage("save", "error", time.Since(start))
		if errors.Is(err, outbound.ErrPersistenceDisabled) {
			s.logger.Debug("Persistence disabled, recipe kept locally")
		} else {
			s.logger.Warn("Failed to save recipe, keeping it unsaved",
				zap.String("dish_name", r.DishName), zap.Error(err))
		}
		span.RecordError(fmt.Errorf("save: %v", err))
		return nil, false
	}
	s.metrics.GenerationStage("save", "ok", time.Since(start))
	return id, true
}
