package cardsets

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers card set routes on a pre-configured
// group. Lifecycle operations (archive, delete, promote) assume the group is
// gated behind admin middleware.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, uploadDir string) {
	h := &handler{
		cardSetService: NewService(db),
		uploadDir:      uploadDir,
	}

	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.retrieve)
	g.POST("/:id", h.update)
	g.GET("/:id/sample-cards", h.sampleCards)
	g.POST("/:id/image", h.uploadImage)
	g.POST("/:id/archive", h.archive)
	g.POST("/:id/unarchive", h.unarchive)
	g.POST("/:id/delete", h.delete)
	g.POST("/:id/promote", h.promote)
}
