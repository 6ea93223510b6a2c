package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CardSet is a named, year-scoped grouping of cards. A set is either canonical
// (the authoritative, user-facing destination for a release) or legacy, and
// either active or archived. Every card is owned by exactly one set at a time.
type CardSet struct {
	bun.BaseModel `bun:"table:card_sets,alias:cs"`

	ID             int       `bun:",pk,autoincrement" json:"id"`
	Name           string    `bun:",nullzero" json:"name"`
	Slug           string    `bun:",nullzero" json:"slug"`
	Year           int       `bun:",nullzero" json:"year"`
	MainSetID      *int      `json:"main_set_id"`
	MainSet        *MainSet  `bun:"rel:belongs-to,join:main_set_id=id" json:"main_set,omitempty"`
	ImageURL       *string   `json:"image_url"`
	ImagePath      *string   `json:"image_path"`
	IsActive       bool      `json:"is_active"`
	IsCanonical    bool      `json:"is_canonical"`
	IsInsertSubset bool      `json:"is_insert_subset"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// CardCount is populated by list/retrieve queries via a subquery; it is
	// not a column on the table.
	CardCount int `bun:"card_count,scanonly" json:"card_count"`
}
