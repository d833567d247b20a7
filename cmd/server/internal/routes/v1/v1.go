package v1

import (
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	servermiddleware "github.com/formbridge/formbridge/cmd/server/internal/middleware"
	"github.com/formbridge/formbridge/cmd/server/internal/models"
	"github.com/formbridge/formbridge/cmd/server/internal/ratelimit"
	"github.com/formbridge/formbridge/internal/archive"
	"github.com/formbridge/formbridge/internal/config"
	"github.com/formbridge/formbridge/internal/integrations"
	"github.com/formbridge/formbridge/internal/labels"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/mailer"
	fbotel "github.com/formbridge/formbridge/internal/otel"
	"github.com/formbridge/formbridge/internal/submission"
	"github.com/formbridge/formbridge/internal/types"
)

const name = "github.com/formbridge/formbridge/cmd/server/internal/routes/v1"

var tracer = otel.Tracer(name)

// Form settings toggling optional submission steps
const (
	SettingStoreEntries       = "store_entries"
	SettingArchiveAttachments = "archive_attachments"
)

type Handler struct {
	DB       *gorm.DB
	config   *config.Config
	registry *integrations.Registry
	forms    *models.FormStore
	verifier *submission.Verifier
	labels   *labels.Labels
	// nil when no archive provider is configured
	archiver *archive.Archiver
	mailer   mailer.Mailer
	metrics  *fbotel.Metrics
	tempDir  string
}

func NewHandler(
	db *gorm.DB,
	cfg *config.Config,
	registry *integrations.Registry,
	lbls *labels.Labels,
	archiver *archive.Archiver,
	fallbackMailer mailer.Mailer,
	metrics *fbotel.Metrics,
) Handler {
	forms := models.NewFormStore(db)

	tempDir := os.TempDir()
	if cfg.TempDir != nil && *cfg.TempDir != "" {
		tempDir = *cfg.TempDir
	}

	if lbls == nil {
		lbls = labels.New(nil)
	}

	return Handler{
		DB:       db,
		config:   cfg,
		registry: registry,
		forms:    forms,
		verifier: submission.NewVerifier(forms, cfg.Security.SigningSecret),
		labels:   lbls,
		archiver: archiver,
		mailer:   fallbackMailer,
		metrics:  metrics,
		tempDir:  tempDir,
	}
}

// Per client IP limit on the public submit routes. Shared through redis when a
// host is configured, per process otherwise.
func (h *Handler) NewSubmitLimiter(cfg *config.RateLimitConfig, limiterKey string) middleware.RateLimiterConfig {
	l := logger.Logger
	var store middleware.RateLimiterStore

	if cfg.RedisHost != "" {
		redisAddr := (&config.CacheConfig{RedisHost: cfg.RedisHost}).RedisAddr()
		l.Debug("Setting up rate limiter with Redis", "redis", redisAddr)
		rdb := redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})

		store = ratelimit.NewRedisLimitStore(ratelimit.RedisLimiterConfig{
			PerMinute:   cfg.SubmitPerMinute,
			RedisClient: rdb,
			LimiterKey:  limiterKey,
			FailOpen:    cfg.FailOpen,
		})
	} else {
		l.Warn("rate limiter has no redis host, limits are per process")
		store = middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(float64(cfg.SubmitPerMinute) / 60),
				Burst:     int(cfg.SubmitPerMinute),
				ExpiresIn: 3 * time.Minute,
			},
		)
	}

	return middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			envelope := types.NewEnvelope(http.StatusForbidden, submission.LabelSecurity, types.EnvelopeData{})
			return c.JSON(envelope.Code, h.labels.Localize(envelope))
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			envelope := types.NewEnvelope(http.StatusTooManyRequests, "submitRateLimit", types.EnvelopeData{})
			return c.JSON(envelope.Code, h.labels.Localize(envelope))
		},
	}
}

func (h *Handler) AddRoutes(e *echo.Echo, middlewareHandler *servermiddleware.Handler) {
	l := logger.Logger

	v1Group := e.Group("/v1")

	var submitMiddleware []echo.MiddlewareFunc
	if h.config.RateLimit != nil && h.config.RateLimit.SubmitPerMinute > 0 {
		submitMiddleware = append(submitMiddleware, middleware.RateLimiterWithConfig(
			h.NewSubmitLimiter(h.config.RateLimit, "submit"),
		))
	} else {
		l.Warn("not configured to have a submit rate limit")
	}

	for _, integration := range h.registry.Types() {
		v1Group.POST("/"+integration+"-submit/", h.Submit(integration), submitMiddleware...)
	}

	basicAuth := middleware.BasicAuth(middlewareHandler.AdminKeyValidator)
	needs := servermiddleware.RequirePermissions

	v1Group.GET("/ping/", h.Ping, basicAuth)

	v1Group.POST("/cache-clear/", h.CacheClear,
		basicAuth, needs(models.Permissions{CacheManagement: true}))

	itemsGroup := v1Group.Group("/integration-items",
		basicAuth, needs(models.Permissions{FormManagement: true}))
	itemsGroup.GET("/:type/", h.IntegrationItems)
	itemsGroup.GET("/:type/:item_id/", h.IntegrationItem)

	hubspotGroup := v1Group.Group("/hubspot",
		basicAuth, needs(models.Permissions{FormManagement: true}))
	hubspotGroup.GET("/contact-properties/", h.HubspotContactProperties)
	hubspotGroup.POST("/contact/", h.HubspotContact)

	formsGroup := v1Group.Group("/form-settings",
		basicAuth, needs(models.Permissions{FormManagement: true}))
	formsGroup.GET("/", h.ListForms)
	formsGroup.GET("/:form_id/", h.GetFormSettings)
	formsGroup.POST("/:form_id/", h.UpdateFormSettings)

	v1Group.GET("/entries/:form_id/", h.ListEntries,
		basicAuth, needs(models.Permissions{EntriesRead: true}))

	entryGroup := v1Group.Group("/entry/:entry_id",
		basicAuth,
		needs(models.Permissions{EntriesRead: true}),
		servermiddleware.PopulateFromIDParam[models.Entry](middlewareHandler, "entry_id", "entry"),
	)
	entryGroup.GET("/", h.GetEntry)
	entryGroup.DELETE("/", h.DeleteEntry, needs(models.Permissions{FormManagement: true}))
}
