package models

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/formbridge/formbridge/internal/config"
)

type Permissions struct {
	CacheManagement bool `json:"cache_management"`
	FormManagement  bool `json:"form_management"`
	EntriesRead     bool `json:"entries_read"`
}

// Names of the permissions set on needed that p does not grant, in declaration order
func (p Permissions) Missing(needed Permissions) []string {
	var missing []string
	for _, perm := range []struct {
		name    string
		needed  bool
		granted bool
	}{
		{"cache_management", needed.CacheManagement, p.CacheManagement},
		{"form_management", needed.FormManagement, p.FormManagement},
		{"entries_read", needed.EntriesRead, p.EntriesRead},
	} {
		if perm.needed && !perm.granted {
			missing = append(missing, perm.name)
		}
	}

	return missing
}

type Auth struct {
	Token string // argon2id hash
	Note  string // will be logged nonsensitive
	Model
	Permissions Permissions `gorm:"type:jsonb;serializer:json"`
	Active      datatypes.Null[bool]
}

func (Auth) TableName() string {
	return "auth"
}

func (a Auth) GetID() uuid.UUID {
	return a.ID
}

// Config is the authoritative api keys
//
// 1. Upsert auth data
// 2. Disable keys not currently contained in the config
func LoadAPIKeysFromConfig(ctx context.Context, db *gorm.DB, keys []config.APIKey) error {
	ctx, span := tracer.Start(ctx, "LoadAPIKeysFromConfig")
	defer span.End()

	db = db.WithContext(ctx)

	keysToUpsert := make([]*Auth, len(keys))
	keysInConfig := make([]uuid.UUID, len(keys))
	for i, key := range keys {
		id, err := uuid.Parse(key.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "api key id is not a uuid")
			span.SetAttributes(attribute.String("failedKey", key.ID))
			return err
		}

		hash, err := argon2id.CreateHash(key.Token, argon2id.DefaultParams)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "error creating hash for api key")
			span.SetAttributes(attribute.String("failedKey", key.ID))
			return err
		}

		keysToUpsert[i] = &Auth{
			Model:  Model{ID: id},
			Token:  hash,
			Note:   key.Note,
			Active: NewNull(key.Active),
			Permissions: Permissions{
				CacheManagement: key.Permissions.CacheManagement,
				FormManagement:  key.Permissions.FormManagement,
				EntriesRead:     key.Permissions.EntriesRead,
			},
		}
		keysInConfig[i] = id
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "LoadAPIKeysFromConfig/Transaction")
		defer span.End()

		tx = tx.WithContext(ctx)

		if len(keysToUpsert) != 0 {
			span.AddEvent("upserting defined auths")
			result := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(keysToUpsert)
			if result.Error != nil {
				span.RecordError(result.Error)
				span.SetStatus(codes.Error, "failed to upsert defined auths")
				return fmt.Errorf("failed to upsert defined auths: %w", result.Error)
			}
		} else {
			span.AddEvent("no defined auths to upsert")
		}

		span.AddEvent("setting all rows not in defined auth inactive")

		query := tx.Model(&Auth{})
		if len(keysInConfig) != 0 {
			query = query.Where("id NOT IN ?", keysInConfig)
		} else {
			query = query.Where("1 = 1")
		}

		result := query.Updates(&Auth{Active: NewNullFromData(false)})
		if result.Error != nil {
			span.RecordError(result.Error)
			span.SetStatus(codes.Error, "failed to set all rows not in defined auth inactive")
			return fmt.Errorf(
				"failed to set all rows not in defined auth inactive: %w",
				result.Error,
			)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "updated auths")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update auth")
		return fmt.Errorf("failed to update auth: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "updated auth")
	return nil
}
