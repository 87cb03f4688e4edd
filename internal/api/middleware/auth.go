package middleware

import (
	"github.com/labstack/echo/v4"

	"candidature-ai/internal/auth"
)

const userIDKey = "user_id"

// RequireAuth resolves the caller's identity and stores it on the request
// context. Unauthenticated requests never reach the handler.
func RequireAuth(resolver *auth.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id, err := resolver.Resolve(req.Context(), req)
			if err != nil {
				return err
			}
			c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), id)))
			c.Set(userIDKey, id.UserID)
			return next(c)
		}
	}
}
