package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cardbinder/cardbinder/pkg/auth"
	"github.com/cardbinder/cardbinder/pkg/binder"
	"github.com/cardbinder/cardbinder/pkg/cards"
	"github.com/cardbinder/cardbinder/pkg/cardsets"
	"github.com/cardbinder/cardbinder/pkg/collections"
	"github.com/cardbinder/cardbinder/pkg/config"
	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/mainsets"
	"github.com/cardbinder/cardbinder/pkg/setmigrations"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	registerAdminRoutes(e, db, cfg, authMiddleware)

	// Collections are per-user; any authenticated account can manage its own.
	collectionsGroup := e.Group("/collections")
	collectionsGroup.Use(authMiddleware.Authenticate)
	collections.RegisterRoutesWithGroup(collectionsGroup, db)

	e.Static("/uploads", cfg.UploadDir)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// registerAdminRoutes registers the catalog management surface. Everything
// here mutates shared data, so all of it sits behind the admin gate.
func registerAdminRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) {
	mainSetsGroup := e.Group("/main-sets")
	mainSetsGroup.Use(authMiddleware.Authenticate)
	mainSetsGroup.Use(authMiddleware.RequireAdmin)
	mainsets.RegisterRoutesWithGroup(mainSetsGroup, db)

	cardSetsGroup := e.Group("/card-sets")
	cardSetsGroup.Use(authMiddleware.Authenticate)
	cardSetsGroup.Use(authMiddleware.RequireAdmin)
	cardsets.RegisterRoutesWithGroup(cardSetsGroup, db, cfg.UploadDir)

	cardsGroup := e.Group("/cards")
	cardsGroup.Use(authMiddleware.Authenticate)
	cardsGroup.Use(authMiddleware.RequireAdmin)
	cards.RegisterRoutesWithGroup(cardsGroup, db)

	migrationsGroup := e.Group("/set-migrations")
	migrationsGroup.Use(authMiddleware.Authenticate)
	migrationsGroup.Use(authMiddleware.RequireAdmin)
	setmigrations.RegisterRoutesWithGroup(migrationsGroup, db)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
