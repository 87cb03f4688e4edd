package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"candidature-ai/internal/api/middleware"
	"candidature-ai/internal/api/validation"
	"candidature-ai/internal/auth"
	"candidature-ai/internal/entitlement"
	"candidature-ai/internal/logging"
	"candidature-ai/internal/render"
	"candidature-ai/pkg/models"
	"candidature-ai/pkg/utils"
)

var documentValidator = validator.New()

func init() {
	validation.RegisterDocumentValidators(documentValidator)
}

// CVRenderer turns a CV into PDF bytes
type CVRenderer interface {
	RenderCV(ctx context.Context, cv *models.CV, opts render.Options) ([]byte, error)
}

// PDFHandler handles POST /api/v1/pdf. The document is watermarked unless the
// caller holds an active subscription.
func PDFHandler(profiles entitlement.ProfileReader, renderer CVRenderer) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.GetRequestID(c)
		logger := logging.LogWithRequestID(requestID)
		ctx := c.Request().Context()

		id, ok := auth.IdentityFrom(ctx)
		if !ok {
			return utils.NewUnauthenticatedError(nil)
		}

		var req models.PDFRequest
		if err := c.Bind(&req); err != nil {
			return utils.NewInvalidFormatError("invalid request body")
		}
		if err := documentValidator.Struct(&req); err != nil {
			return utils.NewInvalidInputError(err.Error())
		}

		docType := utils.GetStringOrDefault(req.Type, "cv")
		if docType != "cv" || req.CVData.CV == nil {
			return utils.NewNotImplementedError(fmt.Sprintf("no PDF layout for %q", docType))
		}

		watermark := true
		profile, err := profiles.GetProfile(ctx, id.UserID)
		switch {
		case err == nil:
			watermark = !profile.IsActive()
		case errors.Is(err, utils.ErrProfileNotFound):
		default:
			return err
		}

		pdf, err := renderer.RenderCV(ctx, req.CVData.CV, render.Options{Watermark: watermark})
		if err != nil {
			return err
		}

		logger.Info("pdf rendered", map[string]interface{}{
			"user_id":   id.UserID,
			"watermark": watermark,
			"bytes":     len(pdf),
		})

		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="cv-%d.pdf"`, time.Now().UnixMilli()))
		return c.Blob(http.StatusOK, "application/pdf", pdf)
	}
}
