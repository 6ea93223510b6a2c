package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all auth routes and returns the auth service so
// the server can build middleware from it.
func RegisterRoutes(e *echo.Echo, db *bun.DB, jwtSecret string) *Service {
	authService := NewService(db, jwtSecret)

	h := &handler{
		authService: authService,
	}

	group := e.Group("/auth")
	group.POST("/login", h.login)
	group.POST("/logout", h.logout)
	group.POST("/setup", h.setup)
	group.GET("/me", h.me)

	return authService
}
