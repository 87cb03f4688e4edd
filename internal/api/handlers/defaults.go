package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"candidature-ai/internal/api/middleware"
	"candidature-ai/internal/auth"
	"candidature-ai/internal/logging"
	"candidature-ai/pkg/models"
	"candidature-ai/pkg/utils"
)

// DefaultsStore loads and saves the per-user form defaults
type DefaultsStore interface {
	GetDefaults(ctx context.Context, userID string) (*models.FormDefaults, error)
	SaveDefaults(ctx context.Context, userID string, data map[string]interface{}) error
}

// GetDefaultsHandler handles GET /api/v1/defaults; data is null until saved
func GetDefaultsHandler(defaults DefaultsStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := auth.IdentityFrom(c.Request().Context())
		if !ok {
			return utils.NewUnauthenticatedError(nil)
		}

		saved, err := defaults.GetDefaults(c.Request().Context(), id.UserID)
		if err != nil {
			return err
		}
		var resp models.DefaultsResponse
		if saved != nil {
			resp.Data = saved.Data
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// SaveDefaultsHandler handles POST /api/v1/defaults. The body is the form
// state itself; offer fields are dropped and an unreadable body saves an
// empty object.
func SaveDefaultsHandler(defaults DefaultsStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := auth.IdentityFrom(c.Request().Context())
		if !ok {
			return utils.NewUnauthenticatedError(nil)
		}

		data := map[string]interface{}{}
		if raw, err := io.ReadAll(c.Request().Body); err == nil && len(raw) > 0 {
			if err := json.Unmarshal(raw, &data); err != nil || data == nil {
				data = map[string]interface{}{}
			}
		}

		if err := defaults.SaveDefaults(c.Request().Context(), id.UserID, models.StripOfferFields(data)); err != nil {
			return err
		}

		logging.LogWithRequestID(middleware.GetRequestID(c)).Debug("form defaults saved", map[string]interface{}{
			"user_id": id.UserID,
			"fields":  len(data),
		})
		return c.JSON(http.StatusOK, models.SavedResponse{OK: true})
	}
}
