package rest

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/alldopamine/catalog/internal/service"
)

var tracer = otel.Tracer("rest")

// AdminOnly rejects requests without the configured bearer token.
func AdminOnly(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), "Rest.Middleware.AdminOnly")
			defer span.End()

			var token string
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authType, value, ok := strings.Cut(authHeader, " "); ok && strings.EqualFold(authType, "Bearer") {
				token = strings.TrimSpace(value)
			}

			result, err := auth.AuthToken(ctx, token)
			if err != nil {
				span.RecordError(err)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			span.SetAttributes(attribute.String("catalog.subject", result.Subject))

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
