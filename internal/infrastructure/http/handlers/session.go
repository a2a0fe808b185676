package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/application/generation"
	"github.com/alchemorsel/fusionchef/internal/application/session"
	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	domain "github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/fusionchef/internal/ports/inbound"
)

// SessionRegistry hands out wizard sessions
type SessionRegistry interface {
	Create() *session.Session
	Get(id string) (*session.Session, error)
	Remove(id string) bool
}

// EventStream upgrades a request to the session's event stream
type EventStream interface {
	ServeSession(w http.ResponseWriter, r *http.Request, sessionID string)
}

// SessionHandlers drive the wizard, the community feed and engagement of a session
type SessionHandlers struct {
	sessions  SessionRegistry
	events    EventStream
	validator Validator
	logger    *zap.Logger
}

// NewSessionHandlers creates the session handlers
func NewSessionHandlers(sessions SessionRegistry, events EventStream, validator Validator, logger *zap.Logger) *SessionHandlers {
	return &SessionHandlers{
		sessions:  sessions,
		events:    events,
		validator: validator,
		logger:    logger.Named("session-api"),
	}
}

// GenerateResponse is the outcome of a generation
type GenerateResponse struct {
	Recipe      recipe.Result `json:"recipe"`
	Saved       bool          `json:"saved"`
	ImageFailed bool          `json:"image_failed"`
	View        session.View  `json:"session"`
}

// session resolves {id} and adopts the bearer user of the request
func (h *SessionHandlers) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return nil, false
	}
	if u := middleware.UserFromContext(r.Context()); u != nil {
		if cur := s.User(); cur == nil || cur.ID != u.ID {
			s.SetUser(u)
		}
	}
	return s, true
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.CreateSessionCommand
	if err := decode(r, h.validator, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	s := h.sessions.Create()
	if u := middleware.UserFromContext(r.Context()); u != nil {
		s.SetUser(u)
	}
	if cmd.RestoreNonce != "" && !s.RestoreAfterRedirect(r.Context(), cmd.RestoreNonce) {
		h.logger.Debug("No redirect snapshot to restore", zap.String("session_id", s.ID()))
	}

	writeData(w, http.StatusCreated, s.View())
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *SessionHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, s.View())
}

// DeleteSession handles DELETE /api/v1/sessions/{id}
func (h *SessionHandlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.sessions.Remove(s.ID())
	w.WriteHeader(http.StatusNoContent)
}

// UpdateChoices handles PATCH /api/v1/sessions/{id}/choices
func (h *SessionHandlers) UpdateChoices(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var patch domain.ChoicesPatch
	if err := decode(r, h.validator, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, s.UpdateChoices(patch))
}

// Next handles POST /api/v1/sessions/{id}/next
func (h *SessionHandlers) Next(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var cmd inbound.NextCommand
	if err := decode(r, h.validator, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	event, err := domain.ParseEvent(cmd.Event)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := s.Next(event); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, s.View())
}

// Back handles POST /api/v1/sessions/{id}/back
func (h *SessionHandlers) Back(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Back()
	writeData(w, http.StatusOK, s.View())
}

// SelectTab handles POST /api/v1/sessions/{id}/tab
func (h *SessionHandlers) SelectTab(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var cmd inbound.TabCommand
	if err := decode(r, h.validator, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	tab, err := domain.ParseTab(cmd.Tab)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	s.SelectTab(r.Context(), tab)
	writeData(w, http.StatusOK, s.View())
}

// Restore handles POST /api/v1/sessions/{id}/restore, the client's back/forward gesture
func (h *SessionHandlers) Restore(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var cmd inbound.RestoreCommand
	if err := decode(r, h.validator, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if cmd.Entry == nil {
		s.OnRestore(nil)
	} else {
		entry, err := cmd.Entry.ToEntry()
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		s.OnRestore(&entry)
	}
	writeData(w, http.StatusOK, s.View())
}

// SubmitIngredients handles POST /api/v1/sessions/{id}/ingredients
func (h *SessionHandlers) SubmitIngredients(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.SubmitIngredients(r.Context()); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, s.View())
}

// Seasonal handles POST /api/v1/sessions/{id}/seasonal
func (h *SessionHandlers) Seasonal(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var cmd inbound.IdeasCommand
	if err := decode(r, h.validator, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, s.LoadSeasonal(r.Context(), cmd.More))
}

// Convenience handles POST /api/v1/sessions/{id}/convenience
func (h *SessionHandlers) Convenience(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var cmd inbound.IdeasCommand
	if err := decode(r, h.validator, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	category := recipe.CategoryMeal
	if cmd.Category != "" {
		category = recipe.Category(cmd.Category)
	}
	writeData(w, http.StatusOK, s.LoadConvenience(r.Context(), category, cmd.More))
}

// SelectConvenience handles POST /api/v1/sessions/{id}/convenience/select
func (h *SessionHandlers) SelectConvenience(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var cmd inbound.SelectConvenienceCommand
	if err := decode(r, h.validator, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out, err := s.SelectConvenience(r.Context(), cmd.Name)
	h.writeOutcome(w, r, s, out, err)
}

// Generate handles POST /api/v1/sessions/{id}/generate
func (h *SessionHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var cmd inbound.GenerateCommand
	if err := decode(r, h.validator, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out, err := s.Generate(r.Context(), cmd.Regenerate, cmd.Override)
	h.writeOutcome(w, r, s, out, err)
}

func (h *SessionHandlers) writeOutcome(w http.ResponseWriter, r *http.Request, s *session.Session, out *generation.Outcome, err error) {
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, GenerateResponse{
		Recipe:      out.Recipe,
		Saved:       out.Saved,
		ImageFailed: out.ImageFailed,
		View:        s.View(),
	})
}

// PreviousRecipe handles POST /api/v1/sessions/{id}/history/back
func (h *SessionHandlers) PreviousRecipe(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.PreviousRecipe()
	writeData(w, http.StatusOK, s.View())
}

// NextRecipe handles POST /api/v1/sessions/{id}/history/forward
func (h *SessionHandlers) NextRecipe(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.NextRecipe()
	writeData(w, http.StatusOK, s.View())
}

// Reset handles POST /api/v1/sessions/{id}/reset
func (h *SessionHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Reset()
	writeData(w, http.StatusOK, s.View())
}

// Events handles GET /api/v1/sessions/{id}/events
func (h *SessionHandlers) Events(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.events.ServeSession(w, r, s.ID())
}
