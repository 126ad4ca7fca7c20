package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openlens/openlens/internal/model"
	"github.com/openlens/openlens/internal/store"
)

// fakeStore is an in-memory store.Store for service tests.
type fakeStore struct {
	media      map[string]*model.Media
	tagScores  map[string][]model.TagScore
	history    []*model.SearchHistory
	favourites map[string][]string

	historyErr error
	upsertErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		media:      make(map[string]*model.Media),
		tagScores:  make(map[string][]model.TagScore),
		favourites: make(map[string][]string),
	}
}

func (s *fakeStore) Media() store.Media                 { return &fakeMedia{s} }
func (s *fakeStore) Tags() store.Tags                   { return &fakeTags{s} }
func (s *fakeStore) SearchHistory() store.SearchHistory { return &fakeHistory{s} }
func (s *fakeStore) Favourites() store.Favourites       { return &fakeFavourites{s} }

type fakeMedia struct{ s *fakeStore }

func (f *fakeMedia) Upsert(_ context.Context, m *model.Media) error {
	if f.s.upsertErr != nil {
		return f.s.upsertErr
	}
	cp := *m
	if existing, ok := f.s.media[m.OpenverseID]; ok {
		cp.AccessedAt = existing.AccessedAt
		cp.MediaType = existing.MediaType
	} else if cp.AccessedAt.IsZero() {
		cp.AccessedAt = time.Now().UTC()
	}
	f.s.media[m.OpenverseID] = &cp
	return nil
}

func (f *fakeMedia) Get(_ context.Context, id string) (*model.Media, error) {
	m, ok := f.s.media[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMedia) TouchAccessed(_ context.Context, id string, at time.Time) error {
	m, ok := f.s.media[id]
	if !ok {
		return model.ErrNotFound
	}
	m.AccessedAt = at
	return nil
}

type fakeTags struct{ s *fakeStore }

func (f *fakeTags) UpsertScores(_ context.Context, id string, tags []model.TagScore) error {
	existing := make(map[string]bool, len(f.s.tagScores[id]))
	for _, ts := range f.s.tagScores[id] {
		existing[ts.Name] = true
	}
	for _, ts := range tags {
		if !existing[ts.Name] {
			f.s.tagScores[id] = append(f.s.tagScores[id], ts)
		}
	}
	return nil
}

func (f *fakeTags) ListForMedia(_ context.Context, id string) ([]model.TagScore, error) {
	return f.s.tagScores[id], nil
}

type fakeHistory struct{ s *fakeStore }

func (f *fakeHistory) Record(_ context.Context, h *model.SearchHistory) error {
	if f.s.historyErr != nil {
		return f.s.historyErr
	}
	cp := *h
	f.s.history = append(f.s.history, &cp)
	return nil
}

func (f *fakeHistory) List(_ context.Context, userID string, limit int) ([]*model.SearchHistory, error) {
	var out []*model.SearchHistory
	for _, h := range f.s.history {
		if h.UserID == userID && len(out) < limit {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHistory) Delete(_ context.Context, userID, id string) error {
	for i, h := range f.s.history {
		if h.UserID == userID && h.ID == id {
			f.s.history = append(f.s.history[:i], f.s.history[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

func (f *fakeHistory) Clear(_ context.Context, userID string) error {
	kept := f.s.history[:0]
	for _, h := range f.s.history {
		if h.UserID != userID {
			kept = append(kept, h)
		}
	}
	f.s.history = kept
	return nil
}

type fakeFavourites struct{ s *fakeStore }

func (f *fakeFavourites) Add(_ context.Context, userID, id string) error {
	for _, existing := range f.s.favourites[userID] {
		if existing == id {
			return nil
		}
	}
	f.s.favourites[userID] = append(f.s.favourites[userID], id)
	return nil
}

func (f *fakeFavourites) Remove(_ context.Context, userID, id string) error {
	for i, existing := range f.s.favourites[userID] {
		if existing == id {
			f.s.favourites[userID] = append(f.s.favourites[userID][:i], f.s.favourites[userID][i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

func (f *fakeFavourites) List(_ context.Context, userID string) ([]*model.Favourite, error) {
	var out []*model.Favourite
	for _, id := range f.s.favourites[userID] {
		fav := &model.Favourite{UserID: userID, MediaID: id}
		if m, ok := f.s.media[id]; ok {
			cp := *m
			fav.Media = &cp
		}
		out = append(out, fav)
	}
	return out, nil
}

// fakeGateway returns canned JSON per endpoint and records every call.
type fakeGateway struct {
	responses map[string]string
	err       error
	calls     []string
}

func (g *fakeGateway) Query(_ context.Context, endpoint string, _ map[string]string) (json.RawMessage, error) {
	g.calls = append(g.calls, endpoint)
	if g.err != nil {
		return nil, g.err
	}
	body, ok := g.responses[endpoint]
	if !ok {
		return nil, fmt.Errorf("unexpected endpoint %q", endpoint)
	}
	return json.RawMessage(body), nil
}
