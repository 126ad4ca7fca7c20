package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/openlens/openlens/internal/api/respond"
	"github.com/openlens/openlens/internal/model"
	"github.com/openlens/openlens/internal/openverse"
	"github.com/openlens/openlens/internal/services"
)

// MediaHandler handles GET /api/media/{id}.
type MediaHandler struct {
	svc *services.MediaService
	log zerolog.Logger
}

func NewMediaHandler(svc *services.MediaService, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{svc: svc, log: log}
}

func (h *MediaHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		respond.WriteBadRequest(w, "media id required")
		return
	}

	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "unknown media id")
			return
		}
		var authErr *openverse.AuthError
		var queryErr *openverse.QueryError
		switch {
		case errors.As(err, &authErr):
			h.log.Error().Int("status", authErr.Status).Str("body", authErr.Body).Msg("upstream auth failed during refresh")
		case errors.As(err, &queryErr):
			h.log.Error().Int("status", queryErr.Status).Str("body", queryErr.Body).Msg("upstream refresh failed")
		default:
			h.log.Error().Err(err).Str("openverse_id", id).Msg("media lookup failed")
		}
		respond.WriteInternalError(w, "media is temporarily unavailable")
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}
