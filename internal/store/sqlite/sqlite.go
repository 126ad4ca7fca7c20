package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/openlens/openlens/internal/model"
	"github.com/openlens/openlens/internal/store"
)

// New opens (or creates) a SQLite-backed store at the given path.
func New(ctx context.Context, path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wires a store over an existing connection (used by tests).
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Media() store.Media                 { return &media{db: s.db} }
func (s *sqliteStore) Tags() store.Tags                   { return &tags{db: s.db} }
func (s *sqliteStore) SearchHistory() store.SearchHistory { return &searchHistory{db: s.db} }
func (s *sqliteStore) Favourites() store.Favourites       { return &favourites{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Media ---

type media struct{ db *sql.DB }

func (m *media) Upsert(ctx context.Context, rec *model.Media) error {
	accessed := rec.AccessedAt
	if accessed.IsZero() {
		accessed = time.Now().UTC()
	}
	_, err := m.db.ExecContext(ctx, `
        INSERT INTO media (
            openverse_id, title, indexed_on, foreign_landing_url, url,
            creator, creator_url, license, license_version, license_url,
            attribution, source, category, file_size, file_type, mature,
            thumbnail_url, width, height, duration, media_type, accessed_at
        ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(openverse_id) DO UPDATE SET
            title               = excluded.title,
            indexed_on          = excluded.indexed_on,
            foreign_landing_url = excluded.foreign_landing_url,
            url                 = excluded.url,
            creator             = excluded.creator,
            creator_url         = excluded.creator_url,
            license             = excluded.license,
            license_version     = excluded.license_version,
            license_url         = excluded.license_url,
            attribution         = excluded.attribution,
            source              = excluded.source,
            category            = excluded.category,
            file_size           = excluded.file_size,
            file_type           = excluded.file_type,
            mature              = excluded.mature,
            thumbnail_url       = excluded.thumbnail_url,
            width               = excluded.width,
            height              = excluded.height,
            duration            = excluded.duration
    `, rec.OpenverseID, rec.Title, rec.IndexedOn.UTC(), rec.ForeignLandingURL, rec.URL,
		rec.Creator, rec.CreatorURL, rec.License, rec.LicenseVersion, rec.LicenseURL,
		rec.Attribution, rec.Source, rec.Category, rec.FileSize, rec.FileType, rec.Mature,
		rec.ThumbnailURL, rec.Width, rec.Height, rec.Duration, string(rec.MediaType), accessed.UTC())
	return err
}

func (m *media) Get(ctx context.Context, openverseID string) (*model.Media, error) {
	row := m.db.QueryRowContext(ctx, `
        SELECT openverse_id, title, indexed_on, foreign_landing_url, url,
               creator, creator_url, license, license_version, license_url,
               attribution, source, category, file_size, file_type, mature,
               thumbnail_url, width, height, duration, media_type, accessed_at,
               (SELECT COUNT(*) FROM favourites f WHERE f.media_id = media.openverse_id)
        FROM media WHERE openverse_id = ?
    `, openverseID)
	return scanMedia(row)
}

func (m *media) TouchAccessed(ctx context.Context, openverseID string, at time.Time) error {
	res, err := m.db.ExecContext(ctx, `UPDATE media SET accessed_at = ? WHERE openverse_id = ?`, at.UTC(), openverseID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanMedia(row rowScanner) (*model.Media, error) {
	var out model.Media
	var mediaType string
	err := row.Scan(
		&out.OpenverseID, &out.Title, &out.IndexedOn, &out.ForeignLandingURL, &out.URL,
		&out.Creator, &out.CreatorURL, &out.License, &out.LicenseVersion, &out.LicenseURL,
		&out.Attribution, &out.Source, &out.Category, &out.FileSize, &out.FileType, &out.Mature,
		&out.ThumbnailURL, &out.Width, &out.Height, &out.Duration, &mediaType, &out.AccessedAt,
		&out.FavouriteCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out.MediaType = model.MediaType(mediaType)
	return &out, nil
}

// --- Tags ---

type tags struct{ db *sql.DB }

func (t *tags) UpsertScores(ctx context.Context, openverseID string, scores []model.TagScore) error {
	for _, ts := range scores {
		if _, err := t.db.ExecContext(ctx,
			`INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, ts.Name); err != nil {
			return err
		}
		// Existing associations keep their original score.
		if _, err := t.db.ExecContext(ctx, `
            INSERT INTO media_tags (media_id, tag_id, accuracy)
            SELECT ?, id, ? FROM tags WHERE name = ?
            ON CONFLICT(media_id, tag_id) DO NOTHING
        `, openverseID, ts.Accuracy, ts.Name); err != nil {
			return err
		}
	}
	return nil
}

func (t *tags) ListForMedia(ctx context.Context, openverseID string) ([]model.TagScore, error) {
	rows, err := t.db.QueryContext(ctx, `
        SELECT tg.name, mt.accuracy
        FROM media_tags mt JOIN tags tg ON tg.id = mt.tag_id
        WHERE mt.media_id = ?
        ORDER BY tg.name
    `, openverseID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.TagScore
	for rows.Next() {
		var ts model.TagScore
		if err := rows.Scan(&ts.Name, &ts.Accuracy); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// --- Search history ---

type searchHistory struct{ db *sql.DB }

func (h *searchHistory) Record(ctx context.Context, rec *model.SearchHistory) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.SearchedAt.IsZero() {
		rec.SearchedAt = time.Now().UTC()
	}
	_, err := h.db.ExecContext(ctx, `
        INSERT INTO search_history (id, user_id, search_key, search_value, searched_at)
        VALUES (?,?,?,?,?)
    `, rec.ID, rec.UserID, rec.SearchKey, rec.SearchValue, rec.SearchedAt.UTC())
	return err
}

func (h *searchHistory) List(ctx context.Context, userID string, limit int) ([]*model.SearchHistory, error) {
	rows, err := h.db.QueryContext(ctx, `
        SELECT id, user_id, search_key, search_value, searched_at
        FROM search_history WHERE user_id = ?
        ORDER BY searched_at DESC LIMIT ?
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.SearchHistory
	for rows.Next() {
		var rec model.SearchHistory
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.SearchKey, &rec.SearchValue, &rec.SearchedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (h *searchHistory) Delete(ctx context.Context, userID, id string) error {
	res, err := h.db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (h *searchHistory) Clear(ctx context.Context, userID string) error {
	_, err := h.db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = ?`, userID)
	return err
}

// --- Favourites ---

type favourites struct{ db *sql.DB }

func (f *favourites) Add(ctx context.Context, userID, openverseID string) error {
	_, err := f.db.ExecContext(ctx, `
        INSERT INTO favourites (user_id, media_id, added_at) VALUES (?,?,?)
        ON CONFLICT(user_id, media_id) DO NOTHING
    `, userID, openverseID, time.Now().UTC())
	return err
}

func (f *favourites) Remove(ctx context.Context, userID, openverseID string) error {
	res, err := f.db.ExecContext(ctx, `DELETE FROM favourites WHERE user_id = ? AND media_id = ?`, userID, openverseID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (f *favourites) List(ctx context.Context, userID string) ([]*model.Favourite, error) {
	rows, err := f.db.QueryContext(ctx, `
        SELECT fv.user_id, fv.media_id, fv.added_at,
               m.openverse_id, m.title, m.indexed_on, m.foreign_landing_url, m.url,
               m.creator, m.creator_url, m.license, m.license_version, m.license_url,
               m.attribution, m.source, m.category, m.file_size, m.file_type, m.mature,
               m.thumbnail_url, m.width, m.height, m.duration, m.media_type, m.accessed_at,
               (SELECT COUNT(*) FROM favourites f2 WHERE f2.media_id = m.openverse_id)
        FROM favourites fv JOIN media m ON m.openverse_id = fv.media_id
        WHERE fv.user_id = ?
        ORDER BY fv.added_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Favourite
	for rows.Next() {
		var fav model.Favourite
		var med model.Media
		var mediaType string
		if err := rows.Scan(
			&fav.UserID, &fav.MediaID, &fav.AddedAt,
			&med.OpenverseID, &med.Title, &med.IndexedOn, &med.ForeignLandingURL, &med.URL,
			&med.Creator, &med.CreatorURL, &med.License, &med.LicenseVersion, &med.LicenseURL,
			&med.Attribution, &med.Source, &med.Category, &med.FileSize, &med.FileType, &med.Mature,
			&med.ThumbnailURL, &med.Width, &med.Height, &med.Duration, &mediaType, &med.AccessedAt,
			&med.FavouriteCount,
		); err != nil {
			return nil, err
		}
		med.MediaType = model.MediaType(mediaType)
		fav.Media = &med
		out = append(out, &fav)
	}
	return out, rows.Err()
}
