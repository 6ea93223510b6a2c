package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Card belongs to exactly one card set. Its row ID is stable across set
// migrations; only card_set_id changes when a card is moved. User collections
// reference cards by ID, so moving a card never orphans a collection entry.
//
// CardNumber is a string ("1", "102a", "SP-3") and is only meaningful within
// a set. There is deliberately no unique constraint on (card_set_id,
// card_number): a confirmed conflicting migration produces duplicates by
// design, and the admin resolves them afterwards.
type Card struct {
	bun.BaseModel `bun:"table:cards,alias:c"`

	ID                  int       `bun:",pk,autoincrement" json:"id"`
	CardSetID           int       `bun:",nullzero" json:"card_set_id"`
	CardSet             *CardSet  `bun:"rel:belongs-to,join:card_set_id=id" json:"card_set,omitempty"`
	CardNumber          string    `bun:",nullzero" json:"card_number"`
	Name                string    `bun:",nullzero" json:"name"`
	IsInsert            bool      `json:"is_insert"`
	ImageURL            *string   `json:"image_url"`
	EstimatedValueCents *int64    `json:"estimated_value_cents"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
