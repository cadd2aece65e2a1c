package presenter

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/xcheck/internal/domain"
)

const (
	MessageInternal  = "Internal Server Error"
	MessageInvalidID = "Internal server error: Invalid _id"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

// InternalError answers every failure with a generic 500. The failure kind is
// only logged.
func InternalError(c echo.Context, err error) error {
	ctx := c.Request().Context()
	kind := domain.KindOf(err)

	slog.ErrorContext(
		ctx, "request failed",
		slog.String("path", c.Path()),
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()),
		slog.String("module", "rest"),
	)

	msg := MessageInternal
	if kind == domain.KindValidation {
		msg = MessageInvalidID
	}
	return c.JSON(http.StatusInternalServerError, errorResponse{Code: http.StatusInternalServerError, Message: msg})
}

// Failed answers a workflow that ended without its expected outcome.
func Failed(c echo.Context, reason string) error {
	slog.WarnContext(
		c.Request().Context(), "workflow failed",
		slog.String("path", c.Path()),
		slog.String("reason", reason),
		slog.String("module", "rest"),
	)
	return c.JSON(http.StatusInternalServerError, errorResponse{Code: http.StatusInternalServerError, Message: MessageInternal})
}

// BadRequest answers a body that failed schema validation.
func BadRequest(c echo.Context, err error) error {
	slog.InfoContext(
		c.Request().Context(), "bad request",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
		slog.String("module", "rest"),
	)
	return c.JSON(http.StatusBadRequest, errorResponse{Code: http.StatusBadRequest, Message: err.Error()})
}
