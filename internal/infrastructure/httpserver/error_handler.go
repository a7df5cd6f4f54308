package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
)

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Timestamp string `json:"timestamp"`
}

// handleError renders every failure in one shape. Catalog errors keep their
// code and status; anything unrecognized becomes the generic internal error.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	resp := toErrorResponse(err)

	if s.logger != nil {
		entry := s.logger.WithError(err).WithFields(logrus.Fields{
			"code":   resp.Code,
			"status": resp.Status,
			"path":   c.Request().URL.Path,
		})
		if resp.Status >= http.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Debug("request rejected")
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(resp.Status)
		return
	}
	_ = c.JSON(resp.Status, resp)
}

func toErrorResponse(err error) errorResponse {
	resp := errorResponse{Timestamp: time.Now().UTC().Format(time.RFC3339)}

	var ce *catalog.Error
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ce):
		resp.Code = ce.Code()
		resp.Status = ce.Status()
		resp.Message = ce.Message
		if ce.Kind == catalog.KindMapping || ce.Kind == catalog.KindInternal {
			resp.Message = catalog.GenericErrorMessage
		}
	case errors.As(err, &he):
		resp.Status = he.Code
		resp.Code = httpCode(he.Code)
		resp.Message = fmt.Sprint(he.Message)
	default:
		resp.Status = http.StatusInternalServerError
		resp.Code = catalog.CodeInternalError
		resp.Message = catalog.GenericErrorMessage
	}
	return resp
}

func httpCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return catalog.CodeNotFound
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusInternalServerError:
		return catalog.CodeInternalError
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
