package models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Upper bound for a single page of entries
const MaxEntriesPage = 500

// Stored copy of a submission
type Entry struct {
	FormID     string
	EntryValue datatypes.JSON
	Model
}

func (Entry) TableName() string {
	return "entries"
}

func CreateEntry(ctx context.Context, db *gorm.DB, formID string, value any) (*Entry, error) {
	ctx, span := tracer.Start(ctx, "CreateEntry", trace.WithAttributes(
		attribute.String("form", formID),
	))
	defer span.End()

	raw, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode entry")
		return nil, fmt.Errorf("failed to encode entry: %w", err)
	}

	entry := &Entry{FormID: formID, EntryValue: datatypes.JSON(raw)}
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store entry")
		return nil, fmt.Errorf("failed to store entry: %w", err)
	}

	span.SetAttributes(attribute.String("entry", entry.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "stored entry")
	return entry, nil
}

// Newest first
func ListEntries(
	ctx context.Context,
	db *gorm.DB,
	formID string,
	limit, offset int,
) ([]Entry, error) {
	ctx, span := tracer.Start(ctx, "ListEntries", trace.WithAttributes(
		attribute.String("form", formID),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	))
	defer span.End()

	if limit <= 0 || limit > MaxEntriesPage {
		limit = MaxEntriesPage
	}
	if offset < 0 {
		offset = 0
	}

	var entries []Entry
	err := db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list entries")
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed entries")
	return entries, nil
}

// Reports false when nothing matched
func DeleteEntry(ctx context.Context, db *gorm.DB, id uuid.UUID) (bool, error) {
	ctx, span := tracer.Start(ctx, "DeleteEntry", trace.WithAttributes(
		attribute.String("entry", id.String()),
	))
	defer span.End()

	result := db.WithContext(ctx).Delete(&Entry{}, "id = ?", id)
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "failed to delete entry")
		return false, fmt.Errorf("failed to delete entry: %w", result.Error)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted entry")
	return result.RowsAffected > 0, nil
}
