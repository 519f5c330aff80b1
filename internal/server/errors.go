package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// NotFoundJSON is the echo error handler: every error that reaches it,
// including routing 404s, is rendered as an ErrorResponse so the API never
// emits HTML error pages.
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}
