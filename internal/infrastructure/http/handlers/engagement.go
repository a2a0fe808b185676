package handlers

import (
	"net/http"

	"github.com/alchemorsel/fusionchef/internal/application/session"
	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	domain "github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/ports/inbound"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

// EngagementResponse carries the counters after a write and the session's vote
type EngagementResponse struct {
	RecipeID      int64        `json:"recipe_id"`
	Stats         recipe.Stats `json:"stats"`
	AverageRating string       `json:"average_rating"`
	Vote          domain.Vote  `json:"vote"`
}

func engagementResponse(s *session.Session, r *recipe.Result) EngagementResponse {
	stats := r.CurrentStats()
	return EngagementResponse{
		RecipeID:      r.ID(),
		Stats:         stats,
		AverageRating: stats.AverageRating(),
		Vote:          s.VoteOf(r.ID()),
	}
}

// writeEngagement renders a write result. A failed write keeps the optimistic
// counters, which are attached to the error body.
func (h *SessionHandlers) writeEngagement(w http.ResponseWriter, r *http.Request, s *session.Session, out *recipe.Result, err error) {
	if err != nil {
		if out != nil && apperrors.Is(err, apperrors.CodeEngagementFailed) {
			appErr := toAppError(err).WithMetadata("optimistic", engagementResponse(s, out))
			writeError(w, r, h.logger, appErr)
			return
		}
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, engagementResponse(s, out))
}

// Vote handles POST /api/v1/sessions/{id}/recipes/{rid}/vote
func (h *SessionHandlers) Vote(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := recipeIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var cmd inbound.VoteCommand
	if err := decode(r, h.validator, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if cmd.Cancel {
		out, err := s.CancelVote(r.Context(), id)
		h.writeEngagement(w, r, s, out, err)
		return
	}
	v, err := domain.ParseVote(cmd.Type)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out, err := s.Vote(r.Context(), id, v)
	h.writeEngagement(w, r, s, out, err)
}

// Rate handles POST /api/v1/sessions/{id}/recipes/{rid}/rating
func (h *SessionHandlers) Rate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := recipeIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var cmd inbound.RateCommand
	if err := decode(r, h.validator, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out, err := s.Rate(r.Context(), id, cmd.Score)
	h.writeEngagement(w, r, s, out, err)
}

// Download handles POST /api/v1/sessions/{id}/recipes/{rid}/download
func (h *SessionHandlers) Download(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := recipeIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out, err := s.Download(r.Context(), id)
	h.writeEngagement(w, r, s, out, err)
}

// Comments handles GET /api/v1/sessions/{id}/recipes/{rid}/comments
func (h *SessionHandlers) Comments(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := recipeIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	comments, err := s.Comments(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if comments == nil {
		comments = []recipe.Comment{}
	}
	writeData(w, http.StatusOK, comments)
}

// AddComment handles POST /api/v1/sessions/{id}/recipes/{rid}/comments
func (h *SessionHandlers) AddComment(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := recipeIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var cmd inbound.CommentCommand
	if err := decode(r, h.validator, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := s.AddComment(r.Context(), id, h.validator.SanitizeText(cmd.Content))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}
