package middleware

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/formbridge/formbridge/cmd/server/internal/models"
	"github.com/formbridge/formbridge/cmd/server/internal/response"
	"github.com/formbridge/formbridge/internal/logger"
)

// Context key the authenticated admin key (*models.Auth) is stored under
const AuthKey = "auth"

const name string = "github.com/formbridge/formbridge/cmd/server/internal/middleware"

var tracer = otel.Tracer(name)

// Hash of a random secret. Unknown key ids are compared against it so a miss
// costs the same argon2id run as a wrong token.
var decoyHash = sync.OnceValues(func() (string, error) {
	return argon2id.CreateHash(uuid.NewString(), argon2id.DefaultParams)
})

func compareDecoy(ctx context.Context, token string) {
	span := trace.SpanFromContext(ctx)

	hash, err := decoyHash()
	if err != nil {
		span.RecordError(err)
		return
	}

	if _, err = argon2id.ComparePasswordAndHash(token, hash); err != nil {
		span.RecordError(err)
	}
}

// Basic auth validator for the admin routes: the username is the admin key id,
// the password its token. Ids that are not uuids still cost a lookup and a hash.
func (h *Handler) AdminKeyValidator(keyID, token string, c echo.Context) (bool, error) {
	ctx, span := tracer.Start(c.Request().Context(), "AdminKeyValidator", trace.WithAttributes(
		attribute.String("key.id", keyID),
	))
	defer span.End()

	db := h.DB.WithContext(ctx)

	lookupID, err := uuid.Parse(keyID)
	if err != nil {
		span.AddEvent("key id is not a uuid")
		lookupID = uuid.New()
	}

	auth, err := models.ByID[models.Auth](ctx, db, lookupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		compareDecoy(ctx, token)
		span.SetStatus(codes.Ok, "unknown admin key")
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to look up admin key")
		return false, response.InternalServerError
	}

	span.SetAttributes(
		attribute.String("key.note", auth.Note),
		attribute.Bool("key.active", auth.Active.Valid && auth.Active.V),
	)

	matched, params, err := argon2id.CheckHash(token, auth.Token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check token")
		return false, response.InternalServerError
	}

	switch {
	case !auth.Active.Valid || !auth.Active.V:
		span.SetStatus(codes.Ok, "inactive admin key")
		return false, nil
	case !matched:
		span.SetStatus(codes.Ok, "wrong token")
		return false, nil
	}

	if !reflect.DeepEqual(params, argon2id.DefaultParams) {
		h.rehash(ctx, auth, token)
	}

	c.Set(AuthKey, auth)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "authenticated")
	return true, nil
}

// Stores the token under the current argon2id parameters. A failure keeps the
// old hash, which still verifies.
func (h *Handler) rehash(ctx context.Context, auth *models.Auth, token string) {
	ctx, span := tracer.Start(ctx, "rehash", trace.WithAttributes(
		attribute.String("key.id", auth.ID.String()),
	))
	defer span.End()

	hash, err := argon2id.CreateHash(token, argon2id.DefaultParams)
	if err == nil {
		err = h.DB.WithContext(ctx).
			Model(&models.Auth{}).
			Where("id = ?", auth.ID).
			Update("token", hash).Error
	}
	if err != nil {
		logger.For("admin-auth").WarnContext(ctx, "failed to rehash admin token", "key", auth.ID.String(), "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to rehash token")
		return
	}

	auth.Token = hash
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "rehashed token")
}
