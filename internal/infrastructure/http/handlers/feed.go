package handlers

import (
	"net/http"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/ports/inbound"
)

// Feed handles GET /api/v1/sessions/{id}/feed
func (h *SessionHandlers) Feed(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, s.Feed().State())
}

// FilterFeed handles POST /api/v1/sessions/{id}/feed/filter. The reload is debounced,
// so the response only acknowledges the new filter.
func (h *SessionHandlers) FilterFeed(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var cmd inbound.FeedFilterCommand
	if err := decode(r, h.validator, &cmd); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var sort *recipe.SortKey
	if cmd.Sort != nil {
		k, err := recipe.ParseSortKey(*cmd.Sort)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		sort = &k
	}

	status := http.StatusOK
	if s.Feed().SetFilter(cmd.Search, sort) {
		status = http.StatusAccepted
	}
	writeData(w, status, s.Feed().State())
}

// MoreFeed handles POST /api/v1/sessions/{id}/feed/more. Fetch failures are reported
// in the state, not as an error status.
func (h *SessionHandlers) MoreFeed(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	_ = s.Feed().LoadMore(r.Context())
	writeData(w, http.StatusOK, s.Feed().State())
}

// ReloadFeed handles POST /api/v1/sessions/{id}/feed/reload
func (h *SessionHandlers) ReloadFeed(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	_ = s.Feed().Reload(r.Context())
	writeData(w, http.StatusOK, s.Feed().State())
}

// AttachFeed handles POST /api/v1/sessions/{id}/feed/attach
func (h *SessionHandlers) AttachFeed(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Feed().Attach()
	if !s.Feed().Loaded() {
		_ = s.Feed().Reload(r.Context())
	}
	writeData(w, http.StatusOK, s.Feed().State())
}

// DetachFeed handles POST /api/v1/sessions/{id}/feed/detach
func (h *SessionHandlers) DetachFeed(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Feed().Detach()
	writeData(w, http.StatusOK, s.Feed().State())
}

// OpenRecipe handles POST /api/v1/sessions/{id}/recipes/{rid}/open
func (h *SessionHandlers) OpenRecipe(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := recipeIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if _, err := s.OpenCommunityRecipe(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, s.View())
}

// CloseRecipe handles POST /api/v1/sessions/{id}/recipes/close
func (h *SessionHandlers) CloseRecipe(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.CloseCommunityRecipe()
	writeData(w, http.StatusOK, s.View())
}
