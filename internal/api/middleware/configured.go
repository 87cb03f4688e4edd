package middleware

import (
	"github.com/labstack/echo/v4"

	"candidature-ai/pkg/utils"
)

// Configurable is anything that can report whether its upstream is usable
type Configurable interface {
	Configured() bool
}

// RequireConfigured fails fast with PROVIDER_MISCONFIGURED before any
// identity lookup or body parsing takes place
func RequireConfigured(target Configurable) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !target.Configured() {
				return utils.NewProviderMisconfiguredError()
			}
			return next(c)
		}
	}
}
