package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/openlens/openlens/internal/model"
	"github.com/openlens/openlens/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens a Postgres-backed store and ensures the schema exists.
func New(ctx context.Context, dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Media() store.Media                 { return &media{db: s.db} }
func (s *pgStore) Tags() store.Tags                   { return &tags{db: s.db} }
func (s *pgStore) SearchHistory() store.SearchHistory { return &searchHistory{db: s.db} }
func (s *pgStore) Favourites() store.Favourites       { return &favourites{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS media (
    openverse_id        TEXT PRIMARY KEY,
    title               TEXT NOT NULL DEFAULT '',
    indexed_on          TIMESTAMPTZ NOT NULL,
    foreign_landing_url TEXT NOT NULL DEFAULT '',
    url                 TEXT NOT NULL DEFAULT '',
    creator             TEXT,
    creator_url         TEXT,
    license             TEXT NOT NULL DEFAULT '',
    license_version     TEXT,
    license_url         TEXT NOT NULL DEFAULT '',
    attribution         TEXT NOT NULL DEFAULT '',
    source              TEXT,
    category            TEXT,
    file_size           BIGINT,
    file_type           TEXT,
    mature              BOOLEAN NOT NULL DEFAULT FALSE,
    thumbnail_url       TEXT,
    width               INTEGER,
    height              INTEGER,
    duration            INTEGER,
    media_type          TEXT NOT NULL,
    accessed_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS media_title_idx ON media(title);

CREATE TABLE IF NOT EXISTS tags (
    id   BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS media_tags (
    media_id TEXT NOT NULL REFERENCES media(openverse_id) ON DELETE CASCADE,
    tag_id   BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (media_id, tag_id)
);

CREATE TABLE IF NOT EXISTS search_history (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    search_key   TEXT NOT NULL DEFAULT 'q',
    search_value TEXT NOT NULL,
    searched_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS search_history_user_idx ON search_history(user_id, searched_at);

CREATE TABLE IF NOT EXISTS favourites (
    user_id  TEXT NOT NULL,
    media_id TEXT NOT NULL REFERENCES media(openverse_id) ON DELETE CASCADE,
    added_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, media_id)
);
`

// EnsureSchema creates the schema when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaDDL)
	return err
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
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
        ON CONFLICT (openverse_id) DO UPDATE SET
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
        FROM media WHERE openverse_id = $1
    `, openverseID)
	return scanMedia(row)
}

func (m *media) TouchAccessed(ctx context.Context, openverseID string, at time.Time) error {
	res, err := m.db.ExecContext(ctx, `UPDATE media SET accessed_at = $1 WHERE openverse_id = $2`, at.UTC(), openverseID)
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
			`INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, ts.Name); err != nil {
			return err
		}
		if _, err := t.db.ExecContext(ctx, `
            INSERT INTO media_tags (media_id, tag_id, accuracy)
            SELECT $1, id, $2 FROM tags WHERE name = $3
            ON CONFLICT (media_id, tag_id) DO NOTHING
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
        WHERE mt.media_id = $1
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
        VALUES ($1,$2,$3,$4,$5)
    `, rec.ID, rec.UserID, rec.SearchKey, rec.SearchValue, rec.SearchedAt.UTC())
	return err
}

func (h *searchHistory) List(ctx context.Context, userID string, limit int) ([]*model.SearchHistory, error) {
	rows, err := h.db.QueryContext(ctx, `
        SELECT id, user_id, search_key, search_value, searched_at
        FROM search_history WHERE user_id = $1
        ORDER BY searched_at DESC LIMIT $2
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
	res, err := h.db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (h *searchHistory) Clear(ctx context.Context, userID string) error {
	_, err := h.db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = $1`, userID)
	return err
}

// --- Favourites ---

type favourites struct{ db *sql.DB }

func (f *favourites) Add(ctx context.Context, userID, openverseID string) error {
	_, err := f.db.ExecContext(ctx, `
        INSERT INTO favourites (user_id, media_id, added_at) VALUES ($1,$2,$3)
        ON CONFLICT (user_id, media_id) DO NOTHING
    `, userID, openverseID, time.Now().UTC())
	return err
}

func (f *favourites) Remove(ctx context.Context, userID, openverseID string) error {
	res, err := f.db.ExecContext(ctx, `DELETE FROM favourites WHERE user_id = $1 AND media_id = $2`, userID, openverseID)
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
        WHERE fv.user_id = $1
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
