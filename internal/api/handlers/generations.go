package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"candidature-ai/internal/auth"
	"candidature-ai/internal/store"
	"candidature-ai/pkg/models"
	"candidature-ai/pkg/utils"
)

// HistoryReader reads a caller's past generations
type HistoryReader interface {
	ListGenerations(ctx context.Context, userID string, limit int) ([]models.GenerationRecord, error)
	GetGeneration(ctx context.Context, userID, id string) (*models.GenerationRecord, error)
}

// ListGenerationsHandler handles GET /api/v1/generations
func ListGenerationsHandler(history HistoryReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := auth.IdentityFrom(c.Request().Context())
		if !ok {
			return utils.NewUnauthenticatedError(nil)
		}

		records, err := history.ListGenerations(c.Request().Context(), id.UserID, store.HistoryLimit)
		if err != nil {
			return err
		}
		if records == nil {
			records = []models.GenerationRecord{}
		}
		return c.JSON(http.StatusOK, models.GenerationsResponse{Generations: records, Count: len(records)})
	}
}

// GetGenerationHandler handles GET /api/v1/generations/:id. Records owned by
// someone else are reported as missing.
func GetGenerationHandler(history HistoryReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := auth.IdentityFrom(c.Request().Context())
		if !ok {
			return utils.NewUnauthenticatedError(nil)
		}

		genID := c.Param("id")
		if !utils.IsUUID(genID) {
			return utils.NewInvalidInputError("id must be a UUID")
		}

		record, err := history.GetGeneration(c.Request().Context(), id.UserID, genID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, record)
	}
}
