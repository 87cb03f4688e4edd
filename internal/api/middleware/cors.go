package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HeaderIdempotencyKey lets clients retry a generation without paying twice
const HeaderIdempotencyKey = "Idempotency-Key"

// CORSConfig returns CORS middleware configuration. Credentials are only
// allowed for an explicit origin list since the session travels in cookies.
func CORSConfig(origins []string) echo.MiddlewareFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestID,
			HeaderIdempotencyKey,
		},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: !wildcard,
		MaxAge:           86400,
	})
}
