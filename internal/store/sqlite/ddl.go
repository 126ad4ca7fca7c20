package sqlite

import (
	"context"
	"database/sql"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS media (
    openverse_id        TEXT PRIMARY KEY,
    title               TEXT NOT NULL DEFAULT '',
    indexed_on          TIMESTAMP NOT NULL,
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
    file_size           INTEGER,
    file_type           TEXT,
    mature              INTEGER NOT NULL DEFAULT 0,
    thumbnail_url       TEXT,
    width               INTEGER,
    height              INTEGER,
    duration            INTEGER,
    media_type          TEXT NOT NULL,
    accessed_at         TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS media_title_idx ON media(title);

CREATE TABLE IF NOT EXISTS tags (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS media_tags (
    media_id TEXT NOT NULL REFERENCES media(openverse_id) ON DELETE CASCADE,
    tag_id   INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    accuracy REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (media_id, tag_id)
);

CREATE TABLE IF NOT EXISTS search_history (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    search_key   TEXT NOT NULL DEFAULT 'q',
    search_value TEXT NOT NULL,
    searched_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS search_history_user_idx ON search_history(user_id, searched_at);

CREATE TABLE IF NOT EXISTS favourites (
    user_id  TEXT NOT NULL,
    media_id TEXT NOT NULL REFERENCES media(openverse_id) ON DELETE CASCADE,
    added_at TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, media_id)
);
`

// EnsureSchema creates the schema when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaDDL)
	return err
}
