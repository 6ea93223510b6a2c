package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	MigrationStatusActive     = "active"
	MigrationStatusRolledBack = "rolled_back"
)

// SetMigrationLog is the audit record for a set migration. It is written
// atomically with the migration itself and is immutable afterwards except for
// the rollback transition, which flips status and stamps rolled_back_at; the
// record is never deleted.
type SetMigrationLog struct {
	bun.BaseModel `bun:"table:set_migration_logs,alias:sml"`

	ID               string              `bun:",pk,nullzero" json:"id"`
	SourceSetID      int                 `bun:",nullzero" json:"source_set_id"`
	SourceSet        *CardSet            `bun:"rel:belongs-to,join:source_set_id=id" json:"source_set,omitempty"`
	DestinationSetID int                 `bun:",nullzero" json:"destination_set_id"`
	DestinationSet   *CardSet            `bun:"rel:belongs-to,join:destination_set_id=id" json:"destination_set,omitempty"`
	MovedCardCount   int                 `json:"moved_card_count"`
	InsertForced     bool                `json:"insert_forced"`
	Notes            *string             `json:"notes"`
	Status           string              `bun:",nullzero" json:"status"`
	RolledBackAt     *time.Time          `json:"rolled_back_at"`
	AdminUserID      int                 `bun:",nullzero" json:"admin_user_id"`
	AdminUser        *User               `bun:"rel:belongs-to,join:admin_user_id=id" json:"admin_user,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	Cards            []*SetMigrationCard `bun:"rel:has-many,join:id=migration_log_id" json:"cards,omitempty"`
}

// SetMigrationCard snapshots one card moved by a migration: which card, and
// what its insert flag was before the move. Rollback is scoped to exactly
// these rows, so cards that land in the destination set for unrelated reasons
// are never pulled back, and a forced insert flag can be restored precisely.
type SetMigrationCard struct {
	bun.BaseModel `bun:"table:set_migration_cards,alias:smc"`

	ID               int    `bun:",pk,autoincrement" json:"id"`
	MigrationLogID   string `bun:",nullzero" json:"migration_log_id"`
	CardID           int    `bun:",nullzero" json:"card_id"`
	PreviousIsInsert bool   `json:"previous_is_insert"`
}
