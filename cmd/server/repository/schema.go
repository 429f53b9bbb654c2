package repository

import (
	"context"
	"fmt"

	"github.com/pindrop/pindrop/common/db"
)

// schema is applied on startup via the bootstrap DB init hook. Statements
// are idempotent so repeated startups are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id     TEXT PRIMARY KEY,
		email       TEXT NOT NULL DEFAULT '',
		verified    BOOLEAN NOT NULL DEFAULT FALSE,
		firstname   TEXT,
		lastname    TEXT,
		is_admin    BOOLEAN NOT NULL DEFAULT FALSE,
		third_party TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS pins (
		id             UUID PRIMARY KEY,
		user_id        TEXT NOT NULL REFERENCES users(user_id),
		type           TEXT NOT NULL,
		classification TEXT NOT NULL DEFAULT '',
		title          TEXT NOT NULL,
		thumbnail      TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_pins_user_created
		ON pins (user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS webpages (
		pin_id         UUID PRIMARY KEY REFERENCES pins(id) ON DELETE CASCADE,
		url            TEXT NOT NULL,
		content        TEXT NOT NULL DEFAULT '',
		text_content   TEXT NOT NULL DEFAULT '',
		clean_content  TEXT NOT NULL DEFAULT '',
		length         INTEGER NOT NULL DEFAULT 0,
		summary        TEXT NOT NULL DEFAULT '',
		byline         TEXT NOT NULL DEFAULT '',
		site_name      TEXT NOT NULL DEFAULT '',
		lang           TEXT NOT NULL DEFAULT '',
		screenshot     TEXT NOT NULL DEFAULT '',
		classification TEXT NOT NULL DEFAULT '',
		comments       TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS images (
		pin_id    UUID PRIMARY KEY REFERENCES pins(id) ON DELETE CASCADE,
		file_path TEXT NOT NULL,
		width     INTEGER NOT NULL DEFAULT 0,
		height    INTEGER NOT NULL DEFAULT 0,
		format    TEXT NOT NULL DEFAULT '',
		summary   TEXT NOT NULL DEFAULT '',
		comments  TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS notes (
		pin_id   UUID PRIMARY KEY REFERENCES pins(id) ON DELETE CASCADE,
		content  TEXT NOT NULL DEFAULT '',
		summary  TEXT NOT NULL DEFAULT '',
		comments TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS tags (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS pin_tags (
		pin_id UUID NOT NULL REFERENCES pins(id) ON DELETE CASCADE,
		tag_id BIGINT NOT NULL REFERENCES tags(id),
		PRIMARY KEY (pin_id, tag_id)
	)`,
}

// InitSchema creates all tables and indexes
func InitSchema(database *db.DB) error {
	ctx := context.Background()
	for _, stmt := range schema {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
