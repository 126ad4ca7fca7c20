package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/openlens/openlens/internal/api/respond"
	"github.com/openlens/openlens/internal/auth"
	"github.com/openlens/openlens/internal/model"
	"github.com/openlens/openlens/internal/services"
)

// FavouritesHandler serves favourite management. All routes require auth.
type FavouritesHandler struct {
	svc   *services.FavouriteService
	authz auth.Authorizer
	log   zerolog.Logger
}

func NewFavouritesHandler(svc *services.FavouriteService, authz auth.Authorizer, log zerolog.Logger) *FavouritesHandler {
	return &FavouritesHandler{svc: svc, authz: authz, log: log}
}

func (h *FavouritesHandler) AddFavourite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.authz)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.svc.Add(r.Context(), userID, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "unknown media id")
			return
		}
		h.log.Error().Err(err).Msg("favourite add failed")
		respond.WriteInternalError(w, "favourites are temporarily unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FavouritesHandler) RemoveFavourite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.authz)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.svc.Remove(r.Context(), userID, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "not a favourite")
			return
		}
		h.log.Error().Err(err).Msg("favourite remove failed")
		respond.WriteInternalError(w, "favourites are temporarily unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FavouritesHandler) ListFavourites(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.authz)
	if !ok {
		return
	}
	favs, err := h.svc.List(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("favourite list failed")
		respond.WriteInternalError(w, "favourites are temporarily unavailable")
		return
	}
	if favs == nil {
		favs = []*model.Favourite{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"results": favs})
}
