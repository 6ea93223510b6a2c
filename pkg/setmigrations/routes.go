package setmigrations

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers set migration routes on a pre-configured
// group. The group must be gated behind admin middleware.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		migrationService: NewService(db),
	}

	g.GET("/preview", h.preview)
	g.POST("", h.execute)
	g.GET("/logs", h.listLogs)
	g.POST("/logs/:id/rollback", h.rollback)
}
