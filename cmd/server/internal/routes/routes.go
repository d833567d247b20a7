package routes

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	servermiddleware "github.com/formbridge/formbridge/cmd/server/internal/middleware"
	"github.com/formbridge/formbridge/internal/config"
	"github.com/formbridge/formbridge/internal/submission"
	"github.com/formbridge/formbridge/internal/validator"
)

func BuildEcho(logger *slog.Logger, security config.SecurityConfig) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	validate := validator.Create()
	e.Validator = &validate

	e.Pre(middleware.AddTrailingSlash())

	e.Use(
		otelecho.Middleware("formbridge"),
		slogecho.NewWithConfig(logger, slogecho.Config{}),
		servermiddleware.Received(nil),
	)

	if security.MaxBodyBytes != "" {
		e.Use(middleware.BodyLimit(security.MaxBodyBytes))
	}

	if len(security.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: security.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowHeaders: []string{
				echo.HeaderContentType,
				echo.HeaderAuthorization,
				submission.SignatureHeader,
			},
		}))
	}

	e.GET("/health/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	return e, nil
}
