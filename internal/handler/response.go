package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/repository"
)

// Envelope is the uniform response body. Business outcomes, success and
// failure alike, travel with transport status 200; clients branch on Code.
// Only transport-level failures (unknown route, bad method) keep their
// HTTP status.
type Envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Page wraps a paginated collection.
type Page struct {
	Items    any `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func respond(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Code: domain.CodeOK, Message: "success", Data: data})
}

func respondMessage(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, Envelope{Code: domain.CodeOK, Message: message})
}

func respondPage(c echo.Context, items any, total int, p repository.ListParams) error {
	return respond(c, Page{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize})
}

// ErrorHandler translates errors into the envelope. Application errors
// map to their business code; anything else is an internal error with the
// cause logged, never exposed.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		// Routing-level failure; keep the transport status.
		_ = c.JSON(httpErr.Code, Envelope{
			Code:    httpErr.Code,
			Message: http.StatusText(httpErr.Code),
		})
		return
	}

	var appErr *domain.Error
	if !errors.As(err, &appErr) {
		appErr = domain.Internal(err)
	}
	if appErr.Code >= domain.CodeServerError {
		slog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"code", appErr.Code,
			"error", err)
	}
	_ = c.JSON(http.StatusOK, Envelope{
		Code:    appErr.Code,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	})
}
