package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MainSet is an optional parent grouping of multiple card sets, e.g. a year's
// full release grouping its base set and insert subsets. Cards never reference
// a main set directly, only through their card set.
type MainSet struct {
	bun.BaseModel `bun:"table:main_sets,alias:ms"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	Name      string    `bun:",nullzero" json:"name"`
	Year      int       `bun:",nullzero" json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
