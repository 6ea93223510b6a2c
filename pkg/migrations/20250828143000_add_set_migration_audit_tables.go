package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE set_migration_logs (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				source_set_id INTEGER REFERENCES card_sets (id) NOT NULL,
				destination_set_id INTEGER REFERENCES card_sets (id) NOT NULL,
				moved_card_count INTEGER NOT NULL,
				insert_forced BOOLEAN NOT NULL DEFAULT FALSE,
				notes TEXT,
				status TEXT NOT NULL DEFAULT 'active',
				rolled_back_at TIMESTAMPTZ,
				admin_user_id INTEGER REFERENCES users (id) NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_set_migration_logs_created_at ON set_migration_logs (created_at)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_set_migration_logs_destination_set_id ON set_migration_logs (destination_set_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		// Per-card snapshot written in the same transaction as the migration.
		// Rollback restores exactly these cards, including the insert flag
		// each card had before the move.
		_, err = db.Exec(`
			CREATE TABLE set_migration_cards (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				migration_log_id TEXT REFERENCES set_migration_logs (id) ON DELETE CASCADE NOT NULL,
				card_id INTEGER REFERENCES cards (id) NOT NULL,
				previous_is_insert BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_set_migration_cards_migration_log_id ON set_migration_cards (migration_log_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_set_migration_cards_card_id ON set_migration_cards (card_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			DROP TABLE IF EXISTS set_migration_cards;
			DROP TABLE IF EXISTS set_migration_logs;
		`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
