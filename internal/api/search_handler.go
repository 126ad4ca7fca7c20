package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/openlens/openlens/internal/api/respond"
	"github.com/openlens/openlens/internal/auth"
	"github.com/openlens/openlens/internal/model"
	"github.com/openlens/openlens/internal/openverse"
	"github.com/openlens/openlens/internal/services"
)

// searchKeys are checked in order; the first present parameter wins.
var searchKeys = []string{"q", "title", "tag", "creator"}

// SearchHandler handles GET /api/search.
type SearchHandler struct {
	svc   *services.SearchService
	authz auth.Authorizer
	log   zerolog.Logger
}

func NewSearchHandler(svc *services.SearchService, authz auth.Authorizer, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{svc: svc, authz: authz, log: log}
}

func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	req := decodeSearchRequest(r)

	// Authentication is optional here; it only enables history recording.
	if token := auth.BearerToken(r); token != "" {
		if userID, err := h.authz.ResolveUser(r.Context(), token); err == nil {
			req.UserID = userID
		}
	}

	page, err := h.svc.Search(r.Context(), req)
	if err != nil {
		h.writeSearchError(w, err)
		return
	}
	if page.Results == nil {
		page.Results = []*model.Media{}
	}
	respond.WriteJSON(w, http.StatusOK, page)
}

func (h *SearchHandler) writeSearchError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrValidation) {
		respond.WriteJSON(w, http.StatusBadRequest, map[string]any{"results": []any{}})
		return
	}

	var authErr *openverse.AuthError
	var queryErr *openverse.QueryError
	switch {
	case errors.As(err, &authErr):
		h.log.Error().Int("status", authErr.Status).Str("body", authErr.Body).Msg("upstream auth failed")
	case errors.As(err, &queryErr):
		h.log.Error().Int("status", queryErr.Status).Str("body", queryErr.Body).Msg("upstream query failed")
	default:
		h.log.Error().Err(err).Msg("search failed")
	}
	respond.WriteInternalError(w, "search is temporarily unavailable")
}

func decodeSearchRequest(r *http.Request) model.SearchRequest {
	qp := r.URL.Query()

	var req model.SearchRequest
	for _, key := range searchKeys {
		if v := qp.Get(key); v != "" {
			req.Key, req.Value = key, v
			break
		}
	}

	req.MediaType = qp.Get("media_type")
	req.Page, _ = strconv.Atoi(qp.Get("page"))
	req.PageSize, _ = strconv.Atoi(qp.Get("page_size"))
	req.IncludeSensitive, _ = strconv.ParseBool(qp.Get("mature"))
	req.SortBy = qp.Get("sort_by")
	req.SortDir = qp.Get("sort_dir")
	req.Sources = splitList(qp.Get("source"))
	req.Licenses = splitList(qp.Get("license"))
	req.Extensions = splitList(qp.Get("extension"))
	return req
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
