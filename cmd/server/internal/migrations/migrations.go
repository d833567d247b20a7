// Package migrations holds the schema as goose Go migrations, applied at startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/formbridge/formbridge/internal/logger"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/cmd/server/internal/migrations")

func rawDB(db *gorm.DB) (*sql.DB, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}

	return db.DB()
}

// Applies every pending migration
func Up(ctx context.Context, db *gorm.DB) error {
	ctx, span := tracer.Start(ctx, "Up")
	defer span.End()

	sqlDB, err := rawDB(db)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get database handle")
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	if err = goose.UpContext(ctx, sqlDB, "."); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to bring migrations up")
		return err
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read schema version")
		return err
	}

	span.SetAttributes(attribute.Int64("schema.version", version))
	logger.Logger.InfoContext(ctx, "database schema is current", "version", version)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "brought migrations up")
	return nil
}

// Rolls back to the given version. 0 drops everything.
func DownTo(ctx context.Context, db *gorm.DB, version int64) error {
	sqlDB, err := rawDB(db)
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	return goose.DownToContext(ctx, sqlDB, ".", version)
}

type statement struct {
	query string
	args  []any
}

func execStatements(ctx context.Context, tx *sql.Tx, statements ...statement) error {
	for _, s := range statements {
		if _, err := tx.ExecContext(ctx, s.query, s.args...); err != nil {
			return err
		}
	}

	return nil
}
