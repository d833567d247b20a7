package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbridge/formbridge/cmd/server/internal/models"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/types"
)

// Admin key stored by AdminKeyValidator
func AuthFrom(c echo.Context) (*models.Auth, bool) {
	auth, ok := c.Get(AuthKey).(*models.Auth)
	return auth, ok && auth != nil
}

// Admin routes run after basic auth. A request without an admin key is 401,
// a key lacking any of the needed permissions is 403.
func RequirePermissions(needed models.Permissions) echo.MiddlewareFunc {
	l := logger.For("admin-auth").With("needed", needed)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), "RequirePermissions", trace.WithAttributes(
				attribute.String("path", c.Path()),
			))
			defer span.End()

			auth, ok := AuthFrom(c)
			if !ok {
				l.WarnContext(ctx, "admin route reached without an admin key")
				span.SetStatus(codes.Error, "no admin key")
				return echo.NewHTTPError(http.StatusUnauthorized, types.StringError("Unauthorized"))
			}

			span.SetAttributes(attribute.String("auth.id", auth.ID.String()))

			if missing := auth.Permissions.Missing(needed); len(missing) > 0 {
				l.InfoContext(ctx, "admin key lacks permissions",
					"key", auth.ID.String(),
					"note", auth.Note,
					"missing", missing,
				)
				span.SetAttributes(attribute.String("permissions.missing", strings.Join(missing, ",")))
				span.SetStatus(codes.Ok, "forbidden")
				return echo.NewHTTPError(http.StatusForbidden, types.StringError("Forbidden"))
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "permitted")
			return next(c)
		}
	}
}
