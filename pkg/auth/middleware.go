package auth

import (
	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/labstack/echo/v4"
)

// ContextKeyUser is the echo context key under which the authenticated user
// is stored. Handlers read it and pass the user into services explicitly, so
// services never depend on ambient request state.
const ContextKeyUser = "user"

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// CurrentUser returns the authenticated user stored on the context, or nil.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(ContextKeyUser).(*models.User)
	return user
}

// Authenticate extracts and validates the JWT from the session cookie, loads
// the user, and stores it on the context. Returns 401 when not authenticated.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		cookie, err := c.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		claims, err := m.authService.ValidateToken(cookie.Value)
		if err != nil {
			return errcodes.Unauthorized("Invalid or expired token")
		}

		user, err := m.authService.GetUserByID(ctx, claims.UserID)
		if err != nil {
			return errcodes.Unauthorized("User not found or inactive")
		}

		c.Set(ContextKeyUser, user)

		return next(c)
	}
}

// RequireAdmin gates the admin console routes. Must be used after
// Authenticate.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil {
			return errcodes.Unauthorized("Authentication required")
		}
		if !user.IsAdmin() {
			return errcodes.Forbidden("Using the admin console")
		}
		return next(c)
	}
}
