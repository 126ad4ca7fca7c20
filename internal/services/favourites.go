package services

import (
	"context"

	"github.com/openlens/openlens/internal/model"
	"github.com/openlens/openlens/internal/store"
)

// FavouriteService links users to cached media records.
type FavouriteService struct {
	store store.Store
}

func NewFavouriteService(s store.Store) *FavouriteService { return &FavouriteService{store: s} }

// Add favourites a cached record. The record must already exist locally.
func (s *FavouriteService) Add(ctx context.Context, userID, openverseID string) error {
	if _, err := s.store.Media().Get(ctx, openverseID); err != nil {
		return err
	}
	return s.store.Favourites().Add(ctx, userID, openverseID)
}

func (s *FavouriteService) Remove(ctx context.Context, userID, openverseID string) error {
	return s.store.Favourites().Remove(ctx, userID, openverseID)
}

func (s *FavouriteService) List(ctx context.Context, userID string) ([]*model.Favourite, error) {
	return s.store.Favourites().List(ctx, userID)
}
