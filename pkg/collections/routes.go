package collections

import (
	"github.com/cardbinder/cardbinder/pkg/cards"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers collection routes on a pre-configured
// group. The group must be gated behind authentication; every handler scopes
// its queries to the current user.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		collectionService: NewService(db),
		cardService:       cards.NewService(db),
	}

	g.GET("", h.list)
	g.POST("", h.add)
	g.POST("/:id", h.update)
	g.DELETE("/:id", h.remove)
}
