package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// SelectiveTimeoutConfig bounds each request's context: paths ending in one
// of longSuffixes get the long timeout, everything else the default one
func SelectiveTimeoutConfig(defaultTimeout, longTimeout time.Duration, longSuffixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			timeout := defaultTimeout
			path := c.Request().URL.Path
			for _, suffix := range longSuffixes {
				if strings.HasSuffix(path, suffix) {
					timeout = longTimeout
					break
				}
			}
			if timeout <= 0 {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
