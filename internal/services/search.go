package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openlens/openlens/internal/model"
	"github.com/openlens/openlens/internal/openverse"
	"github.com/openlens/openlens/internal/store"
)

const (
	collectionImages = "images"
	collectionAudio  = "audio"

	defaultPageSize = 20
	sortRelevance   = "relevance"
)

// searchKeyParams maps supported search keys onto upstream parameter names.
var searchKeyParams = map[string]string{
	"q":       "q",
	"title":   "title",
	"tag":     "tags",
	"creator": "creator",
}

// SearchService runs one logical query against the upstream collections,
// merges and pages the results, and reconciles the page against the local
// cache.
type SearchService struct {
	store store.Store
	gw    Gateway
	log   zerolog.Logger
	now   func() time.Time
}

func NewSearchService(s store.Store, gw Gateway, log zerolog.Logger) *SearchService {
	return &SearchService{store: s, gw: gw, log: log, now: time.Now}
}

// collectionPage is the decoded shape of one upstream collection response.
type collectionPage struct {
	ResultCount int              `json:"result_count"`
	Results     []map[string]any `json:"results"`
}

// Search fans the request out to each collection implied by the media-type
// filter, merges the per-collection pages, slices the requested window,
// upserts the page into the cache and returns it. Both collection calls must
// succeed; there is no partial-collection degraded response.
func (s *SearchService) Search(ctx context.Context, req model.SearchRequest) (*model.SearchPage, error) {
	req, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	params := s.upstreamParams(req)

	wantImages, wantAudio := wantedCollections(req.MediaType)
	imgPage, err := s.fetchCollection(ctx, collectionImages, params, wantImages)
	if err != nil {
		return nil, err
	}
	audPage, err := s.fetchCollection(ctx, collectionAudio, params, wantAudio)
	if err != nil {
		return nil, err
	}

	totalCount := imgPage.ResultCount + audPage.ResultCount
	totalPages := (totalCount + req.PageSize - 1) / req.PageSize

	now := s.now()
	images := s.normalizeAll(imgPage.Results, model.MediaTypeImage, now)
	audio := s.normalizeAll(audPage.Results, model.MediaTypeAudio, now)

	var merged []*model.Media
	if req.SortBy == sortRelevance {
		merged = interleave(images, audio)
	} else {
		merged = append(append([]*model.Media{}, images...), audio...)
		sortMerged(merged, req.SortBy, req.SortDir)
	}

	// Each collection was already asked for this page, so the local slice is
	// a windowing safeguard rather than a re-fetch.
	start := (req.Page - 1) * req.PageSize
	end := start + req.PageSize
	if start > len(merged) {
		start = len(merged)
	}
	if end > len(merged) {
		end = len(merged)
	}
	page := merged[start:end]

	for _, m := range page {
		if err := s.store.Media().Upsert(ctx, m); err != nil {
			return nil, fmt.Errorf("cache upsert %s: %w", m.OpenverseID, err)
		}
		if err := s.store.Tags().UpsertScores(ctx, m.OpenverseID, m.Tags); err != nil {
			return nil, fmt.Errorf("tag upsert %s: %w", m.OpenverseID, err)
		}
	}

	s.recordHistory(ctx, req)

	return &model.SearchPage{
		Results:    page,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// normalizeRequest applies defaults and rejects invalid input before any
// upstream call is made.
func normalizeRequest(req model.SearchRequest) (model.SearchRequest, error) {
	req.Value = strings.TrimSpace(req.Value)
	if req.Value == "" {
		return req, fmt.Errorf("%w: search value is required", model.ErrValidation)
	}
	if req.Key == "" {
		req.Key = "q"
	}
	if _, ok := searchKeyParams[req.Key]; !ok {
		return req, fmt.Errorf("%w: unsupported search key %q", model.ErrValidation, req.Key)
	}
	switch req.MediaType {
	case "", "both", string(model.MediaTypeImage), string(model.MediaTypeAudio):
	default:
		return req, fmt.Errorf("%w: unsupported media type %q", model.ErrValidation, req.MediaType)
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = defaultPageSize
	}
	if req.SortBy == "" {
		req.SortBy = sortRelevance
	}
	if req.SortDir != "asc" {
		req.SortDir = "desc"
	}
	return req, nil
}

func wantedCollections(mediaType string) (images, audio bool) {
	switch mediaType {
	case string(model.MediaTypeImage):
		return true, false
	case string(model.MediaTypeAudio):
		return false, true
	default:
		return true, true
	}
}

// upstreamParams builds the shared parameter set forwarded to every
// collection; filter lists are comma-joined.
func (s *SearchService) upstreamParams(req model.SearchRequest) map[string]string {
	params := map[string]string{
		searchKeyParams[req.Key]: req.Value,
		"page":                   strconv.Itoa(req.Page),
		"page_size":              strconv.Itoa(req.PageSize),
	}
	if req.IncludeSensitive {
		params["mature"] = "true"
	}
	if len(req.Sources) > 0 {
		params["source"] = strings.Join(req.Sources, ",")
	}
	if len(req.Licenses) > 0 {
		params["license"] = strings.Join(req.Licenses, ",")
	}
	if len(req.Extensions) > 0 {
		params["extension"] = strings.Join(req.Extensions, ",")
	}
	return params
}

// fetchCollection queries one collection, or returns an empty page with zero
// total when the collection is excluded by the media-type filter.
func (s *SearchService) fetchCollection(ctx context.Context, collection string, params map[string]string, wanted bool) (*collectionPage, error) {
	if !wanted {
		return &collectionPage{}, nil
	}
	raw, err := s.gw.Query(ctx, collection, params)
	if err != nil {
		return nil, err
	}
	var page collectionPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", collection, err)
	}
	return &page, nil
}

// normalizeAll maps raw items to canonical records. A malformed item aborts
// only itself, not the page.
func (s *SearchService) normalizeAll(items []map[string]any, kind model.MediaType, now time.Time) []*model.Media {
	out := make([]*model.Media, 0, len(items))
	for _, item := range items {
		m, err := openverse.Normalize(item, kind, now)
		if err != nil {
			if errors.Is(err, openverse.ErrMalformedItem) {
				s.log.Warn().Str("media_type", string(kind)).Msg("skipping upstream item without id")
				continue
			}
			s.log.Warn().Err(err).Str("media_type", string(kind)).Msg("skipping unnormalizable upstream item")
			continue
		}
		out = append(out, m)
	}
	return out
}

// recordHistory logs the search for authenticated callers. History failures
// never fail the aggregation request.
func (s *SearchService) recordHistory(ctx context.Context, req model.SearchRequest) {
	if req.UserID == "" {
		return
	}
	h := &model.SearchHistory{
		UserID:      req.UserID,
		SearchKey:   req.Key,
		SearchValue: req.Value,
		SearchedAt:  s.now().UTC(),
	}
	if err := s.store.SearchHistory().Record(ctx, h); err != nil {
		s.log.Warn().Err(err).Str("user_id", req.UserID).Msg("failed to record search history")
	}
}
