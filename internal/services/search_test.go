package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openlens/openlens/internal/model"
)

func newTestSearchService(st *fakeStore, gw *fakeGateway) *SearchService {
	svc := NewSearchService(st, gw, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) }
	return svc
}

func collectionJSON(count int, items ...string) string {
	return `{"result_count":` + strconv.Itoa(count) + `,"results":[` + strings.Join(items, ",") + `]}`
}

func TestSearch_InterleavesAndWindows(t *testing.T) {
	st := newFakeStore()
	gw := &fakeGateway{responses: map[string]string{
		collectionImages: collectionJSON(2,
			`{"id":"img-a","title":"Alpha"}`,
			`{"id":"img-b","title":"Beta"}`),
		collectionAudio: collectionJSON(1,
			`{"id":"aud-x","title":"Xylo"}`),
	}}
	svc := newTestSearchService(st, gw)

	page, err := svc.Search(context.Background(), model.SearchRequest{
		Key: "q", Value: "cats", Page: 1, PageSize: 2,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if page.TotalCount != 3 {
		t.Fatalf("total_count = %d, want 3", page.TotalCount)
	}
	if page.TotalPages != 2 {
		t.Fatalf("total_pages = %d, want 2", page.TotalPages)
	}
	if len(page.Results) != 2 {
		t.Fatalf("results len = %d, want 2", len(page.Results))
	}
	// Relevance interleave starts with the images collection.
	if page.Results[0].OpenverseID != "img-a" || page.Results[1].OpenverseID != "aud-x" {
		t.Fatalf("results = [%s %s], want [img-a aud-x]",
			page.Results[0].OpenverseID, page.Results[1].OpenverseID)
	}

	// The returned window was cached; the item outside it was not.
	if _, ok := st.media["img-a"]; !ok {
		t.Fatal("img-a not cached")
	}
	if _, ok := st.media["aud-x"]; !ok {
		t.Fatal("aud-x not cached")
	}
	if _, ok := st.media["img-b"]; ok {
		t.Fatal("img-b cached but outside returned window")
	}
}

func TestSearch_WindowClampsToMergedLength(t *testing.T) {
	st := newFakeStore()
	gw := &fakeGateway{responses: map[string]string{
		collectionImages: collectionJSON(2,
			`{"id":"img-a"}`, `{"id":"img-b"}`),
		collectionAudio: collectionJSON(1, `{"id":"aud-x"}`),
	}}
	svc := newTestSearchService(st, gw)

	page, err := svc.Search(context.Background(), model.SearchRequest{
		Value: "cats", Page: 2, PageSize: 2,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].OpenverseID != "img-b" {
		t.Fatalf("page 2 results = %v", ids(page.Results))
	}

	// A window entirely beyond the merged list degrades to an empty page.
	page, err = svc.Search(context.Background(), model.SearchRequest{
		Value: "cats", Page: 9, PageSize: 2,
	})
	if err != nil {
		t.Fatalf("search page 9: %v", err)
	}
	if len(page.Results) != 0 {
		t.Fatalf("page 9 results = %v, want empty", ids(page.Results))
	}
}

func TestSearch_EmptyValueRejectedBeforeUpstream(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestSearchService(newFakeStore(), gw)

	_, err := svc.Search(context.Background(), model.SearchRequest{Value: "   "})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(gw.calls) != 0 {
		t.Fatalf("upstream called %d times for invalid request", len(gw.calls))
	}
}

func TestSearch_UnsupportedKeyAndTypeRejected(t *testing.T) {
	svc := newTestSearchService(newFakeStore(), &fakeGateway{})

	_, err := svc.Search(context.Background(), model.SearchRequest{Key: "license", Value: "x"})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("unsupported key err = %v", err)
	}

	_, err = svc.Search(context.Background(), model.SearchRequest{Value: "x", MediaType: "video"})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("unsupported media type err = %v", err)
	}
}

func TestSearch_MediaTypeFilterSkipsCollection(t *testing.T) {
	gw := &fakeGateway{responses: map[string]string{
		collectionImages: collectionJSON(1, `{"id":"img-a"}`),
	}}
	svc := newTestSearchService(newFakeStore(), gw)

	page, err := svc.Search(context.Background(), model.SearchRequest{
		Value: "cats", MediaType: "image",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(gw.calls) != 1 || gw.calls[0] != collectionImages {
		t.Fatalf("calls = %v, want [images]", gw.calls)
	}
	if page.TotalCount != 1 {
		t.Fatalf("total_count = %d, want 1", page.TotalCount)
	}
}

func TestSearch_UpstreamFailureAborts(t *testing.T) {
	st := newFakeStore()
	gw := &fakeGateway{err: errors.New("boom")}
	svc := newTestSearchService(st, gw)

	_, err := svc.Search(context.Background(), model.SearchRequest{Value: "cats"})
	if err == nil {
		t.Fatal("want error")
	}
	if len(st.media) != 0 {
		t.Fatalf("media cached despite failure: %v", st.media)
	}
}

func TestSearch_StableSortAcrossCollections(t *testing.T) {
	gw := &fakeGateway{responses: map[string]string{
		collectionImages: collectionJSON(2,
			`{"id":"img-b","title":"Banana"}`,
			`{"id":"img-d","title":"Date"}`),
		collectionAudio: collectionJSON(2,
			`{"id":"aud-a","title":"Apple"}`,
			`{"id":"aud-c","title":"Cherry"}`),
	}}
	svc := newTestSearchService(newFakeStore(), gw)

	page, err := svc.Search(context.Background(), model.SearchRequest{
		Value: "fruit", PageSize: 10, SortBy: "title", SortDir: "asc",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	got := ids(page.Results)
	want := []string{"aud-a", "img-b", "aud-c", "img-d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted ids = %v, want %v", got, want)
		}
	}
}

func TestSearch_SkipsMalformedItems(t *testing.T) {
	gw := &fakeGateway{responses: map[string]string{
		collectionImages: collectionJSON(3,
			`{"id":"img-a"}`,
			`{"title":"no identity"}`,
			`{"id":"img-c"}`),
		collectionAudio: collectionJSON(0),
	}}
	svc := newTestSearchService(newFakeStore(), gw)

	page, err := svc.Search(context.Background(), model.SearchRequest{Value: "cats", PageSize: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	got := ids(page.Results)
	if len(got) != 2 || got[0] != "img-a" || got[1] != "img-c" {
		t.Fatalf("results = %v, want [img-a img-c]", got)
	}
	// The reported totals still reflect the upstream counts.
	if page.TotalCount != 3 {
		t.Fatalf("total_count = %d, want 3", page.TotalCount)
	}
}

func TestSearch_RecordsHistoryForAuthenticatedUser(t *testing.T) {
	st := newFakeStore()
	gw := &fakeGateway{responses: map[string]string{
		collectionImages: collectionJSON(0),
		collectionAudio:  collectionJSON(0),
	}}
	svc := newTestSearchService(st, gw)

	_, err := svc.Search(context.Background(), model.SearchRequest{
		Key: "tag", Value: "sunset", UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(st.history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(st.history))
	}
	h := st.history[0]
	if h.UserID != "user-1" || h.SearchKey != "tag" || h.SearchValue != "sunset" {
		t.Fatalf("history = %+v", h)
	}
}

func TestSearch_HistoryFailureDoesNotFailRequest(t *testing.T) {
	st := newFakeStore()
	st.historyErr = errors.New("disk full")
	gw := &fakeGateway{responses: map[string]string{
		collectionImages: collectionJSON(0),
		collectionAudio:  collectionJSON(0),
	}}
	svc := newTestSearchService(st, gw)

	if _, err := svc.Search(context.Background(), model.SearchRequest{Value: "cats", UserID: "user-1"}); err != nil {
		t.Fatalf("search: %v", err)
	}
}

func TestSearch_AnonymousLeavesNoHistory(t *testing.T) {
	st := newFakeStore()
	gw := &fakeGateway{responses: map[string]string{
		collectionImages: collectionJSON(0),
		collectionAudio:  collectionJSON(0),
	}}
	svc := newTestSearchService(st, gw)

	if _, err := svc.Search(context.Background(), model.SearchRequest{Value: "cats"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(st.history) != 0 {
		t.Fatalf("history rows = %d, want 0", len(st.history))
	}
}

func ids(results []*model.Media) []string {
	out := make([]string, len(results))
	for i, m := range results {
		out[i] = m.OpenverseID
	}
	return out
}
