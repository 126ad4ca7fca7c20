package store

import (
	"context"
	"time"

	"github.com/openlens/openlens/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
type Store interface {
	Media() Media
	Tags() Tags
	SearchHistory() SearchHistory
	Favourites() Favourites
}

// Media is the durable cache of canonical records, keyed by upstream id.
type Media interface {
	// Upsert creates the row or fully overwrites every refreshable field.
	// Identity, media type and the accessed timestamp are never changed by
	// an upsert of an existing row.
	Upsert(ctx context.Context, m *model.Media) error
	// Get returns the cached record with its favourite count and tag scores,
	// or model.ErrNotFound.
	Get(ctx context.Context, openverseID string) (*model.Media, error)
	// TouchAccessed sets the accessed timestamp of an existing row.
	TouchAccessed(ctx context.Context, openverseID string, at time.Time) error
}

// Tags maintains the confidence-filtered tag index. Tag rows are created
// lazily; existing associations are not re-scored.
type Tags interface {
	UpsertScores(ctx context.Context, openverseID string, tags []model.TagScore) error
	ListForMedia(ctx context.Context, openverseID string) ([]model.TagScore, error)
}

// SearchHistory is an append-only per-user log of searches.
type SearchHistory interface {
	Record(ctx context.Context, h *model.SearchHistory) error
	List(ctx context.Context, userID string, limit int) ([]*model.SearchHistory, error)
	Delete(ctx context.Context, userID, id string) error
	Clear(ctx context.Context, userID string) error
}

// Favourites links users to cached media records.
type Favourites interface {
	Add(ctx context.Context, userID, openverseID string) error
	Remove(ctx context.Context, userID, openverseID string) error
	List(ctx context.Context, userID string) ([]*model.Favourite, error)
}
