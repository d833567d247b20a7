package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0004, Down0004)
}

func Up0004(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE entries (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    form_id TEXT NOT NULL REFERENCES forms (id) ON DELETE CASCADE,
    entry_value JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`},
		statement{query: `
CREATE INDEX entries_form_id_index ON entries (form_id, created_at DESC);`},
		statement{query: `
CREATE TRIGGER entries_touch_updated_at BEFORE UPDATE ON entries
FOR EACH ROW EXECUTE PROCEDURE touch_updated_at();`},
	)
}

func Down0004(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE entries;`)
	return err
}
