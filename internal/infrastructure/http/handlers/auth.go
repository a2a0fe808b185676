package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/fusionchef/internal/ports/inbound"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

// AuthHandlers handles sign in and sign out
type AuthHandlers struct {
	auth        inbound.AuthService
	sessions    SessionRegistry
	devCallback bool
	logger      *zap.Logger
}

// NewAuthHandlers creates the auth handlers. devCallback makes the callback trust the
// identity passed in its query.
func NewAuthHandlers(auth inbound.AuthService, sessions SessionRegistry, devCallback bool, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		auth:        auth,
		sessions:    sessions,
		devCallback: devCallback,
		logger:      logger.Named("auth-api"),
	}
}

// SignInResponse tells the client where to send the user
type SignInResponse struct {
	RedirectURL string `json:"redirect_url"`
	Nonce       string `json:"nonce"`
}

// AuthResponse represents authentication response with token
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	User         *userResponse `json:"user"`
	RestoreNonce string        `json:"restore_nonce,omitempty"`
}

// SignIn handles POST /api/v1/sessions/{id}/auth/signin. The recipe history is saved
// under a nonce that travels through the provider as the state parameter.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	nonce, err := s.PrepareRedirect(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	redirect, err := h.auth.SignIn(r.Context(), nonce)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, SignInResponse{RedirectURL: redirect, Nonce: nonce})
}

// Callback handles GET /api/v1/auth/callback. The restore nonce is handed back so the
// client can create a session that resumes its history.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.devCallback {
		writeError(w, r, h.logger, apperrors.NewAppError(
			apperrors.CodeServiceUnavailable,
			"Sign in callback is not configured",
			"",
		))
		return
	}

	q := r.URL.Query()
	state := q.Get("state")
	subject := q.Get("subject")
	if subject == "" {
		subject = q.Get("email")
	}

	token, u, err := h.auth.Complete(r.Context(), state, subject, q.Get("email"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, AuthResponse{
		AccessToken:  token,
		TokenType:    "Bearer",
		User:         toUserResponse(u),
		RestoreNonce: state,
	})
}

// SignOut handles POST /api/v1/auth/signout
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		writeError(w, r, h.logger, apperrors.NewUnauthorizedError("Missing bearer token"))
		return
	}
	if err := h.auth.SignOut(r.Context(), token); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, r, h.logger, apperrors.NewUnauthorizedError("Not signed in"))
		return
	}
	writeData(w, http.StatusOK, toUserResponse(u))
}
