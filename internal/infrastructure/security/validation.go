package security

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

var (
	scriptPattern  = regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`)
	handlerPattern = regexp.MustCompile(`(?i)\son\w+\s*=`)
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

var xssPatterns = []string{
	"<script", "</script>", "javascript:", "vbscript:",
	"onload", "onerror", "onclick", "onmouseover", "onfocus",
	"document.cookie", "document.write", "window.location",
}

// ValidationService validates request DTOs and sanitizes free text
type ValidationService struct {
	logger    *zap.Logger
	validator *validator.Validate
}

// NewValidationService creates a new validation service. Field names in errors use
// the json tag so clients see the names they sent.
func NewValidationService(logger *zap.Logger) *ValidationService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("no_xss", validateNoXSS)
	_ = validate.RegisterValidation("ingredient", validateIngredient)

	return &ValidationService{
		logger:    logger.Named("validation"),
		validator: validate,
	}
}

// ValidateStruct validates a struct and converts failures to a validation AppError
func (v *ValidationService) ValidateStruct(s interface{}) error {
	if err := v.validator.Struct(s); err != nil {
		return apperrors.FromValidator(err)
	}
	return nil
}

// SanitizeText strips markup from user text that is shown to other users
func (v *ValidationService) SanitizeText(input string) string {
	out := scriptPattern.ReplaceAllString(input, "")
	out = handlerPattern.ReplaceAllString(out, " ")
	out = tagPattern.ReplaceAllString(out, "")
	out = html.UnescapeString(out)
	out = spacePattern.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// validateNoXSS checks for XSS patterns
func validateNoXSS(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	for _, pattern := range xssPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

// validateIngredient validates ingredient names
func validateIngredient(fl validator.FieldLevel) bool {
	ingredient := fl.Field().String()
	if len(ingredient) > 200 {
		return false
	}
	lower := strings.ToLower(ingredient)
	for _, danger := range []string{"<", ">", "javascript:"} {
		if strings.Contains(lower, danger) {
			return false
		}
	}
	return true
}
