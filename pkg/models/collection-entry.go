package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CollectionEntry records that a user owns copies of a card. Entries reference
// cards by ID only, which is the invariant that makes set migration safe: a
// migrated card keeps its ID, so every entry still resolves afterwards.
type CollectionEntry struct {
	bun.BaseModel `bun:"table:collection_entries,alias:ce"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	UserID    int       `bun:",nullzero" json:"user_id"`
	CardID    int       `bun:",nullzero" json:"card_id"`
	Card      *Card     `bun:"rel:belongs-to,join:card_id=id" json:"card,omitempty"`
	Quantity  int       `bun:",nullzero" json:"quantity"`
	Condition *string   `json:"condition"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
