package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/labstack/echo/v4"
)

type validationResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

// handleError renders every error that reaches echo. Internal details are
// logged, never sent to the client.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code int
		body any
		ve   *common.ValidationError
		he   *echo.HTTPError
	)

	switch {
	case errors.As(err, &ve):
		code = http.StatusBadRequest
		body = validationResponse{Error: "bad request", Fields: ve.Fields}
	case errors.Is(err, common.ErrorNotFound):
		code = http.StatusNotFound
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrConfirmationRequired):
		code = http.StatusUnauthorized
	case errors.As(err, &he):
		code = he.Code
	default:
		code = http.StatusInternalServerError
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "Request failed",
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"error", err)
	}

	text := http.StatusText(code)
	if body == nil {
		body = text
	}

	var werr error
	switch {
	case c.Request().Method == http.MethodHead:
		werr = c.NoContent(code)
	case wantsJSON(c.Request()):
		werr = c.JSON(code, body)
	default:
		werr = c.String(code, text)
	}
	if werr != nil {
		s.logger.Error(c.Request().Context(), "Writing error response failed", "error", werr)
	}
}
