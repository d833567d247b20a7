package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/formbridge/formbridge/internal/config"
	"github.com/formbridge/formbridge/internal/integrations"
	"github.com/formbridge/formbridge/internal/submission"
)

type Form struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Settings    map[string]string `gorm:"type:jsonb;serializer:json"`
	ID          string            `gorm:"primaryKey"`
	Integration string
	ItemID      string
	Active      datatypes.Null[bool]
}

func (Form) TableName() string {
	return "forms"
}

func (f Form) Config() config.Form {
	settings := make(map[string]string, len(f.Settings))
	for k, v := range f.Settings {
		settings[k] = v
	}

	return config.Form{
		ID:          f.ID,
		Integration: f.Integration,
		ItemID:      f.ItemID,
		Active:      PtrFromNull(f.Active),
		Settings:    settings,
	}
}

// Config is authoritative for integration, item id and activity. Settings are
// merged so keys written through the admin api survive a restart unless the
// config names them.
func LoadFormsFromConfig(ctx context.Context, db *gorm.DB, forms []config.Form) error {
	ctx, span := tracer.Start(ctx, "LoadFormsFromConfig")
	defer span.End()

	db = db.WithContext(ctx)

	toUpsert := make([]*Form, len(forms))
	ids := make([]string, len(forms))
	for i, form := range forms {
		active := form.Active == nil || *form.Active
		settings := form.Settings
		if settings == nil {
			settings = map[string]string{}
		}

		toUpsert[i] = &Form{
			ID:          form.ID,
			Integration: form.Integration,
			ItemID:      form.ItemID,
			Active:      NewNullFromData(active),
			Settings:    settings,
		}
		ids[i] = form.ID
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "LoadFormsFromConfig/Transaction")
		defer span.End()

		tx = tx.WithContext(ctx)

		if len(toUpsert) != 0 {
			span.AddEvent("upserting defined forms")
			result := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"integration": gorm.Expr("excluded.integration"),
					"item_id":     gorm.Expr("excluded.item_id"),
					"active":      gorm.Expr("excluded.active"),
					"settings":    gorm.Expr("forms.settings || excluded.settings"),
				}),
			}).Create(toUpsert)
			if result.Error != nil {
				span.RecordError(result.Error)
				span.SetStatus(codes.Error, "failed to upsert defined forms")
				return fmt.Errorf("failed to upsert defined forms: %w", result.Error)
			}
		}

		span.AddEvent("setting all forms not in config inactive")
		query := tx.Model(&Form{})
		if len(ids) != 0 {
			query = query.Where("id NOT IN ?", ids)
		} else {
			query = query.Where("1 = 1")
		}

		result := query.Updates(&Form{Active: NewNullFromData(false)})
		if result.Error != nil {
			span.RecordError(result.Error)
			span.SetStatus(codes.Error, "failed to deactivate forms")
			return fmt.Errorf("failed to deactivate forms: %w", result.Error)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "updated forms")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load forms")
		return fmt.Errorf("failed to load forms: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "loaded forms")
	return nil
}

var (
	_ submission.Forms          = (*FormStore)(nil)
	_ integrations.FormSettings = (*FormStore)(nil)
)

// Database backed form lookups for the submit and admin routes
type FormStore struct {
	db *gorm.DB
}

func NewFormStore(db *gorm.DB) *FormStore {
	return &FormStore{db: db}
}

func (s *FormStore) Form(ctx context.Context, id string) (config.Form, error) {
	form, err := ByID[Form](ctx, s.db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return config.Form{}, submission.ErrFormNotFound
	} else if err != nil {
		return config.Form{}, err
	}

	return form.Config(), nil
}

func (s *FormStore) List(ctx context.Context) ([]Form, error) {
	ctx, span := tracer.Start(ctx, "FormStore.List")
	defer span.End()

	var forms []Form
	if err := s.db.WithContext(ctx).Order("id").Find(&forms).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list forms")
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed forms")
	return forms, nil
}

// Empty when the form or key is unknown
func (s *FormStore) FormSetting(ctx context.Context, formID string, key string) string {
	form, err := s.Form(ctx, formID)
	if err != nil {
		return ""
	}

	return form.Settings[key]
}

func (s *FormStore) SetFormSetting(ctx context.Context, formID, key, value string) error {
	ctx, span := tracer.Start(ctx, "FormStore.SetFormSetting", trace.WithAttributes(
		attribute.String("form", formID),
		attribute.String("key", key),
	))
	defer span.End()

	result := s.db.WithContext(ctx).
		Model(&Form{}).
		Where("id = ?", formID).
		Update("settings", gorm.Expr("settings || jsonb_build_object(?::text, ?::text)", key, value))
	return s.settingResult(span, result)
}

func (s *FormStore) DeleteFormSetting(ctx context.Context, formID, key string) error {
	ctx, span := tracer.Start(ctx, "FormStore.DeleteFormSetting", trace.WithAttributes(
		attribute.String("form", formID),
		attribute.String("key", key),
	))
	defer span.End()

	result := s.db.WithContext(ctx).
		Model(&Form{}).
		Where("id = ?", formID).
		Update("settings", gorm.Expr("settings - ?::text", key))
	return s.settingResult(span, result)
}

func (*FormStore) settingResult(span trace.Span, result *gorm.DB) error {
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "failed to update form settings")
		return fmt.Errorf("failed to update form settings: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		span.RecordError(submission.ErrFormNotFound)
		span.SetStatus(codes.Error, "form not found")
		return submission.ErrFormNotFound
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "updated form settings")
	return nil
}
