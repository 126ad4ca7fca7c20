package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/openlens/openlens/internal/api/respond"
	"github.com/openlens/openlens/internal/auth"
	"github.com/openlens/openlens/internal/model"
	"github.com/openlens/openlens/internal/services"
)

// HistoryHandler serves a user's search history. All routes require auth.
type HistoryHandler struct {
	svc   *services.HistoryService
	authz auth.Authorizer
	log   zerolog.Logger
}

func NewHistoryHandler(svc *services.HistoryService, authz auth.Authorizer, log zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, authz: authz, log: log}
}

func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.authz)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.svc.List(r.Context(), userID, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("history list failed")
		respond.WriteInternalError(w, "history is temporarily unavailable")
		return
	}
	if items == nil {
		items = []*model.SearchHistory{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"results": items})
}

func (h *HistoryHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.authz)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "unknown history entry")
			return
		}
		h.log.Error().Err(err).Msg("history delete failed")
		respond.WriteInternalError(w, "history is temporarily unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HistoryHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.authz)
	if !ok {
		return
	}
	if err := h.svc.Clear(r.Context(), userID); err != nil {
		h.log.Error().Err(err).Msg("history clear failed")
		respond.WriteInternalError(w, "history is temporarily unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireUser resolves the calling user from the bearer key or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request, authz auth.Authorizer) (string, bool) {
	token := auth.BearerToken(r)
	if token == "" {
		respond.WriteUnauthorized(w, "missing API key")
		return "", false
	}
	userID, err := authz.ResolveUser(r.Context(), token)
	if err != nil {
		respond.WriteUnauthorized(w, "invalid API key")
		return "", false
	}
	return userID, true
}
