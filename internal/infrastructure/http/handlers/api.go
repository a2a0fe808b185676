// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/application/session"
	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	domain "github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/domain/user"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

const maxBodyBytes = 64 << 10

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Validator checks decoded request DTOs
type Validator interface {
	ValidateStruct(s interface{}) error
	SanitizeText(input string) string
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, APIResponse{Success: true, Data: data})
}

// writeError renders any error as an AppError body with its status code
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr := toAppError(err)
	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(err))
	}
	writeJSON(w, status, apperrors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())))
}

// toAppError maps domain sentinels to their API codes
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, recipe.ErrInvalidScore),
		errors.Is(err, recipe.ErrEmptyComment),
		errors.Is(err, recipe.ErrCommentTooLong),
		errors.Is(err, recipe.ErrUnknownSortKey),
		errors.Is(err, domain.ErrUnknownValue):
		return apperrors.NewValidationError(err.Error()).WithCause(err)
	case errors.Is(err, recipe.ErrAlreadyRated):
		return apperrors.NewConflictError("You already rated this recipe").WithCause(err)
	case errors.Is(err, session.ErrSuperseded):
		return apperrors.NewConflictError("The wizard moved on before the recipe was ready").WithCause(err)
	case errors.Is(err, recipe.ErrRecipeNotFound):
		return apperrors.NewNotFoundError("recipe").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewAppError(apperrors.CodeServiceUnavailable, "Request timed out", "").WithCause(err)
	}
	return apperrors.Wrap(err, "Internal server error")
}

// decode reads a JSON body into dst and validates it. An empty body is accepted and
// leaves dst at its zero value before validation.
func decode(r *http.Request, v Validator, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewBadRequestError("Invalid request body").WithCause(err)
	}
	return v.ValidateStruct(dst)
}

func recipeIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "rid"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError("Invalid recipe id")
	}
	return id, nil
}

// userResponse is the public part of a user
type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func toUserResponse(u *user.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName()}
}
