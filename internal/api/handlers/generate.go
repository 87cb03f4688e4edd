package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"candidature-ai/internal/api/middleware"
	"candidature-ai/internal/auth"
	"candidature-ai/internal/generation"
	"candidature-ai/internal/logging"
	"candidature-ai/pkg/utils"
)

// HeaderReplayed marks a response served from the idempotency cache
const HeaderReplayed = "Idempotent-Replayed"

// Generator runs the generation pipeline
type Generator interface {
	Configured() bool
	Generate(ctx context.Context, userID string, body []byte, idempotencyKey string) (*generation.Response, error)
}

// GenerateHandler handles POST /generate. It expects RequireConfigured and
// RequireAuth to have run.
func GenerateHandler(svc Generator) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.GetRequestID(c)
		logger := logging.LogWithRequestID(requestID)
		ctx := c.Request().Context()

		id, ok := auth.IdentityFrom(ctx)
		if !ok {
			return utils.NewUnauthenticatedError(nil)
		}

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return utils.NewInvalidFormatError("unreadable request body")
		}

		logger.Info("generation requested", map[string]interface{}{
			"user_id":    id.UserID,
			"body_bytes": len(body),
		})

		resp, err := svc.Generate(ctx, id.UserID, body, c.Request().Header.Get(middleware.HeaderIdempotencyKey))
		if err != nil {
			return err
		}
		if resp.Replayed {
			c.Response().Header().Set(HeaderReplayed, "true")
		}
		return c.JSON(http.StatusOK, resp.Payload())
	}
}
