package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/openlens/openlens/internal/model"
	"github.com/openlens/openlens/internal/openverse"
	"github.com/openlens/openlens/internal/store"
)

// freshnessWindow is how long a cached record stays fresh after its last
// access before a detail lookup triggers an upstream re-query.
const freshnessWindow = 7 * 24 * time.Hour

// MediaService serves cached canonical records with staleness-based refresh.
type MediaService struct {
	store store.Store
	gw    Gateway
	log   zerolog.Logger
	now   func() time.Time
}

func NewMediaService(s store.Store, gw Gateway, log zerolog.Logger) *MediaService {
	return &MediaService{store: s, gw: gw, log: log, now: time.Now}
}

// Get returns the cached record for an id. A record unaccessed for longer
// than the freshness window is re-fetched from its collection and all
// refreshable fields are overwritten; identity and media type are preserved.
// The accessed timestamp is bumped unconditionally, refresh or not.
func (s *MediaService) Get(ctx context.Context, openverseID string) (*model.Media, error) {
	m, err := s.store.Media().Get(ctx, openverseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if now.Sub(m.AccessedAt) > freshnessWindow {
		if err := s.refresh(ctx, m, now); err != nil {
			return nil, err
		}
	}

	if err := s.store.Media().TouchAccessed(ctx, openverseID, now); err != nil {
		return nil, err
	}

	// Re-read so the response reflects the refreshed fields, the bumped
	// timestamp and the current favourite count.
	fresh, err := s.store.Media().Get(ctx, openverseID)
	if err != nil {
		return nil, err
	}
	tags, err := s.store.Tags().ListForMedia(ctx, openverseID)
	if err != nil {
		return nil, err
	}
	fresh.Tags = tags
	return fresh, nil
}

// refresh re-queries the single matching collection for the record's id and
// overwrites the cached row. An upstream failure, including a deleted
// upstream record, propagates to the caller.
func (s *MediaService) refresh(ctx context.Context, m *model.Media, now time.Time) error {
	endpoint := collectionForKind(m.MediaType) + "/" + m.OpenverseID
	raw, err := s.gw.Query(ctx, endpoint, nil)
	if err != nil {
		return err
	}

	var item map[string]any
	if err := json.Unmarshal(raw, &item); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	updated, err := openverse.Normalize(item, m.MediaType, now)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", m.OpenverseID, err)
	}
	// Identity and kind are never overwritten by a refresh.
	updated.OpenverseID = m.OpenverseID
	updated.MediaType = m.MediaType

	if err := s.store.Media().Upsert(ctx, updated); err != nil {
		return err
	}
	if err := s.store.Tags().UpsertScores(ctx, updated.OpenverseID, updated.Tags); err != nil {
		return err
	}
	s.log.Debug().Str("openverse_id", m.OpenverseID).Msg("refreshed stale media record")
	return nil
}

func collectionForKind(kind model.MediaType) string {
	if kind == model.MediaTypeAudio {
		return collectionAudio
	}
	return collectionImages
}
