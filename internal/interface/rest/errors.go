package rest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/alldopamine/catalog/internal/domain"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRequiredCalculation):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondError(c echo.Context, err error) error {
	status := statusFor(err)
	trace.SpanFromContext(c.Request().Context()).RecordError(err)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
