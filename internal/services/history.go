package services

import (
	"context"

	"github.com/openlens/openlens/internal/model"
	"github.com/openlens/openlens/internal/store"
)

const defaultHistoryLimit = 50

// HistoryService exposes a user's search history log.
type HistoryService struct {
	store store.Store
}

func NewHistoryService(s store.Store) *HistoryService { return &HistoryService{store: s} }

func (s *HistoryService) List(ctx context.Context, userID string, limit int) ([]*model.SearchHistory, error) {
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	return s.store.SearchHistory().List(ctx, userID, limit)
}

func (s *HistoryService) Delete(ctx context.Context, userID, id string) error {
	return s.store.SearchHistory().Delete(ctx, userID, id)
}

func (s *HistoryService) Clear(ctx context.Context, userID string) error {
	return s.store.SearchHistory().Clear(ctx, userID)
}
