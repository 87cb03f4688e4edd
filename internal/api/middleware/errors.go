package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"candidature-ai/internal/logging"
	"candidature-ai/pkg/models"
	"candidature-ai/pkg/utils"
)

// ErrorHandler renders every error returned by a handler or middleware as a
// models.ErrorResponse carrying the stable error code
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := errorBody(err, GetRequestID(c))

		logger := logging.GetGlobalLogger()
		fields := map[string]interface{}{
			"request_id": body.RequestID,
			"status":     status,
			"error":      body.Error,
			"path":       c.Request().URL.Path,
		}
		if status >= http.StatusInternalServerError {
			fields["cause"] = err.Error()
			logger.Error("request failed", fields)
		} else {
			logger.Info("request rejected", fields)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Warn("failed to write error response", map[string]interface{}{"error": writeErr.Error()})
		}
	}
}

func errorBody(err error, requestID string) (int, models.ErrorResponse) {
	resp := models.ErrorResponse{RequestID: requestID, Timestamp: time.Now().UTC()}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		resp.Error = httpKind(he.Code)
		resp.Message = http.StatusText(he.Code)
		if msg, ok := he.Message.(string); ok && msg != "" {
			resp.Message = msg
		}
		return he.Code, resp
	}

	ce := utils.AsCustomError(err)
	resp.Error = string(ce.Kind)
	resp.Message = ce.Message
	if ce.Detail != "" {
		resp.Message = ce.Message + ": " + ce.Detail
	}
	return ce.Code, resp
}

func httpKind(code int) string {
	switch code {
	case http.StatusNotFound:
		return string(utils.KindNotFound)
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "REQUEST_TOO_LARGE"
	case http.StatusTooManyRequests:
		return string(utils.KindRateLimited)
	case http.StatusUnauthorized:
		return string(utils.KindUnauthenticated)
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return string(utils.KindProviderTimeout)
	}
	if code >= http.StatusInternalServerError {
		return string(utils.KindInternal)
	}
	return string(utils.KindBadRequest)
}
