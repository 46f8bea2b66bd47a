package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	// UserIDKey carries the authenticated user's id on the request context.
	UserIDKey contextKey = "auth_user_id"
	// EmailKey carries the authenticated user's email on the request context.
	EmailKey contextKey = "auth_email"
)

// Skipper reports whether a request bypasses authentication.
type Skipper func(c echo.Context) bool

// PathSkipper builds a Skipper that matches exact paths and prefixes ending
// in "*".
func PathSkipper(patterns ...string) Skipper {
	return func(c echo.Context) bool {
		path := c.Request().URL.Path
		for _, p := range patterns {
			if strings.HasSuffix(p, "*") {
				if strings.HasPrefix(path, strings.TrimSuffix(p, "*")) {
					return true
				}
			} else if path == p {
				return true
			}
		}
		return false
	}
}

// Middleware validates the bearer token and stashes the user identity on
// both the echo context and the request context.
func Middleware(mgr *TokenManager, skip Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := mgr.Validate(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set("user_id", claims.UserID.String())
			c.Set("email", claims.Email)

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// UserID returns the authenticated user's id from the echo context.
func UserID(c echo.Context) (uuid.UUID, error) {
	s, _ := c.Get("user_id").(string)
	if s == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return id, nil
}

// UserIDFromContext returns the authenticated user's id from a request
// context, or uuid.Nil.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return id
}
