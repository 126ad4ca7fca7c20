package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openlens/openlens/internal/model"
	"github.com/openlens/openlens/internal/store"
)

func strp(s string) *string { return &s }

func sampleMedia(id string, kind model.MediaType) *model.Media {
	return &model.Media{
		OpenverseID:       id,
		Title:             "Sample " + id,
		IndexedOn:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ForeignLandingURL: "https://example.org/" + id,
		URL:               "https://cdn.example.org/" + id,
		Creator:           strp("alice"),
		License:           "by",
		LicenseURL:        "https://creativecommons.org/licenses/by/4.0/",
		Attribution:       "Sample by alice",
		MediaType:         kind,
	}
}

// Run exercises a compliance suite against a store.Store implementation.
// makeStore should return a clean, isolated store per invocation.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	userID := "u-" + uuid.New().String()

	// --- Media upsert/get ---
	img := sampleMedia("img-1", model.MediaTypeImage)
	if err := s.Media().Upsert(ctx, img); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := s.Media().Get(ctx, "img-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != img.Title || got.MediaType != model.MediaTypeImage {
		t.Fatalf("Get: got=%+v", got)
	}
	if got.AccessedAt.IsZero() {
		t.Fatalf("Get: accessed_at not set on create")
	}

	// Upserting the identical record twice leaves one row with the same state.
	firstAccessed := got.AccessedAt
	if err := s.Media().Upsert(ctx, img); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	again, err := s.Media().Get(ctx, "img-1")
	if err != nil {
		t.Fatalf("Get after second upsert: %v", err)
	}
	if again.Title != got.Title || !again.AccessedAt.Equal(firstAccessed) {
		t.Fatalf("upsert not idempotent: before=%+v after=%+v", got, again)
	}

	// Upsert overwrites refreshable fields but never the accessed timestamp.
	updated := sampleMedia("img-1", model.MediaTypeImage)
	updated.Title = "Renamed"
	if err := s.Media().Upsert(ctx, updated); err != nil {
		t.Fatalf("refresh Upsert: %v", err)
	}
	refreshed, err := s.Media().Get(ctx, "img-1")
	if err != nil {
		t.Fatalf("Get after refresh: %v", err)
	}
	if refreshed.Title != "Renamed" {
		t.Fatalf("refresh did not overwrite title: %q", refreshed.Title)
	}
	if !refreshed.AccessedAt.Equal(firstAccessed) {
		t.Fatalf("refresh changed accessed_at: %v -> %v", firstAccessed, refreshed.AccessedAt)
	}

	// TouchAccessed bumps the timestamp independently of the fetch path.
	bumped := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	if err := s.Media().TouchAccessed(ctx, "img-1", bumped); err != nil {
		t.Fatalf("TouchAccessed: %v", err)
	}
	touched, err := s.Media().Get(ctx, "img-1")
	if err != nil {
		t.Fatalf("Get after touch: %v", err)
	}
	if !touched.AccessedAt.Equal(bumped) {
		t.Fatalf("TouchAccessed: got %v want %v", touched.AccessedAt, bumped)
	}
	if err := s.Media().TouchAccessed(ctx, "no-such-id", bumped); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("TouchAccessed missing row: err=%v", err)
	}

	if _, err := s.Media().Get(ctx, "no-such-id"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing row: err=%v", err)
	}

	// --- Tags ---
	scores := []model.TagScore{{Name: "cat", Accuracy: 0.9}, {Name: "animal", Accuracy: 0.5}}
	if err := s.Tags().UpsertScores(ctx, "img-1", scores); err != nil {
		t.Fatalf("UpsertScores: %v", err)
	}
	// Re-observing the same tag with a different score keeps the original.
	if err := s.Tags().UpsertScores(ctx, "img-1", []model.TagScore{{Name: "cat", Accuracy: 0.1}}); err != nil {
		t.Fatalf("UpsertScores rescore: %v", err)
	}
	tags, err := s.Tags().ListForMedia(ctx, "img-1")
	if err != nil {
		t.Fatalf("ListForMedia: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("ListForMedia: n=%d want 2", len(tags))
	}
	for _, tg := range tags {
		if tg.Name == "cat" && tg.Accuracy != 0.9 {
			t.Fatalf("association was re-scored: %+v", tg)
		}
	}

	// A second record sharing a tag name reuses the same tag row.
	aud := sampleMedia("aud-1", model.MediaTypeAudio)
	if err := s.Media().Upsert(ctx, aud); err != nil {
		t.Fatalf("Upsert audio: %v", err)
	}
	if err := s.Tags().UpsertScores(ctx, "aud-1", []model.TagScore{{Name: "cat", Accuracy: 0.7}}); err != nil {
		t.Fatalf("UpsertScores shared tag: %v", err)
	}
	audTags, err := s.Tags().ListForMedia(ctx, "aud-1")
	if err != nil || len(audTags) != 1 || audTags[0].Accuracy != 0.7 {
		t.Fatalf("ListForMedia audio: tags=%v err=%v", audTags, err)
	}

	// --- Search history ---
	for _, v := range []string{"cats", "dogs", "owls"} {
		if err := s.SearchHistory().Record(ctx, &model.SearchHistory{UserID: userID, SearchKey: "q", SearchValue: v}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	hist, err := s.SearchHistory().List(ctx, userID, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("List: n=%d want 2", len(hist))
	}
	all, err := s.SearchHistory().List(ctx, userID, 10)
	if err != nil || len(all) != 3 {
		t.Fatalf("List all: n=%d err=%v", len(all), err)
	}
	if err := s.SearchHistory().Delete(ctx, userID, all[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.SearchHistory().Delete(ctx, userID, all[0].ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Delete twice: err=%v", err)
	}
	if err := s.SearchHistory().Clear(ctx, userID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if left, err := s.SearchHistory().List(ctx, userID, 10); err != nil || len(left) != 0 {
		t.Fatalf("List after clear: n=%d err=%v", len(left), err)
	}

	// --- Favourites ---
	if err := s.Favourites().Add(ctx, userID, "img-1"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// Adding twice is a no-op.
	if err := s.Favourites().Add(ctx, userID, "img-1"); err != nil {
		t.Fatalf("Add twice: %v", err)
	}
	favs, err := s.Favourites().List(ctx, userID)
	if err != nil || len(favs) != 1 {
		t.Fatalf("List favourites: n=%d err=%v", len(favs), err)
	}
	if favs[0].Media == nil || favs[0].Media.OpenverseID != "img-1" {
		t.Fatalf("List favourites: media=%+v", favs[0].Media)
	}
	counted, err := s.Media().Get(ctx, "img-1")
	if err != nil || counted.FavouriteCount != 1 {
		t.Fatalf("favourite count: got=%d err=%v", counted.FavouriteCount, err)
	}
	if err := s.Favourites().Remove(ctx, userID, "img-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Favourites().Remove(ctx, userID, "img-1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Remove twice: err=%v", err)
	}
}
