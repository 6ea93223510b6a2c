package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				username TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_users_username ON users (username COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE main_sets (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				year INTEGER NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE card_sets (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				slug TEXT NOT NULL,
				year INTEGER NOT NULL,
				main_set_id INTEGER REFERENCES main_sets (id),
				image_url TEXT,
				image_path TEXT,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				is_canonical BOOLEAN NOT NULL DEFAULT FALSE,
				is_insert_subset BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_card_sets_slug ON card_sets (slug)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_card_sets_main_set_id ON card_sets (main_set_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE cards (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				card_set_id INTEGER REFERENCES card_sets (id) NOT NULL,
				card_number TEXT NOT NULL,
				name TEXT NOT NULL,
				is_insert BOOLEAN NOT NULL DEFAULT FALSE,
				image_url TEXT,
				estimated_value_cents INTEGER
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		// No unique index on (card_set_id, card_number): a confirmed
		// conflicting migration intentionally produces duplicate numbers in
		// the destination set.
		_, err = db.Exec(`CREATE INDEX ix_cards_card_set_id ON cards (card_set_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_cards_card_number ON cards (card_number)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE collection_entries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) NOT NULL,
				card_id INTEGER REFERENCES cards (id) NOT NULL,
				quantity INTEGER NOT NULL DEFAULT 1,
				condition TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_collection_entries_user_card_condition ON collection_entries (user_id, card_id, IFNULL(condition, ''))`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_collection_entries_card_id ON collection_entries (card_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			DROP TABLE IF EXISTS collection_entries;
			DROP TABLE IF EXISTS cards;
			DROP TABLE IF EXISTS card_sets;
			DROP TABLE IF EXISTS main_sets;
			DROP TABLE IF EXISTS users;
		`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
