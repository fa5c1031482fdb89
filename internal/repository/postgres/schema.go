package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the tables the service needs. Statements are idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS shares (
		id               TEXT PRIMARY KEY,
		wallet_address   TEXT NOT NULL,
		roast_text       TEXT NOT NULL DEFAULT '',
		source_image_url TEXT NOT NULL,
		optimized_url    TEXT NOT NULL DEFAULT '',
		media_id         TEXT NOT NULL DEFAULT '',
		tweet_id         TEXT NOT NULL DEFAULT '',
		upload_strategy  TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL,
		error_kind       TEXT NOT NULL DEFAULT '',
		error_message    TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS shares_created_at_idx ON shares (created_at)`,
	`CREATE INDEX IF NOT EXISTS shares_wallet_address_idx ON shares (wallet_address)`,
}

// ApplySchema runs every Schema statement in one transaction.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	for i, stmt := range Schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return tx.Commit()
}
