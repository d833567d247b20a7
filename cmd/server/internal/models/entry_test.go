package models

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbridge/formbridge/internal/config"
)

func TestEntries(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	require.NoError(t, LoadFormsFromConfig(ctx, db, []config.Form{
		{ID: "20", Integration: "mailchimp", ItemID: "list"},
		{ID: "21", Integration: "mailchimp", ItemID: "list"},
	}))

	first, err := CreateEntry(ctx, db, "20", map[string]string{"email": "a@example.com"})
	require.NoError(t, err)
	second, err := CreateEntry(ctx, db, "20", map[string]string{"email": "b@example.com"})
	require.NoError(t, err)
	_, err = CreateEntry(ctx, db, "21", map[string]string{"email": "c@example.com"})
	require.NoError(t, err)

	t.Run("UnknownFormRejected", func(t *testing.T) {
		_, err := CreateEntry(ctx, db, "404", map[string]string{})
		require.Error(t, err)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		entries, err := ListEntries(ctx, db, "20", 0, 0)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, second.ID, entries[0].ID)
		assert.Equal(t, first.ID, entries[1].ID)

		var value map[string]string
		require.NoError(t, json.Unmarshal(entries[1].EntryValue, &value))
		assert.Equal(t, "a@example.com", value["email"])
	})

	t.Run("ListPaged", func(t *testing.T) {
		entries, err := ListEntries(ctx, db, "20", 1, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, first.ID, entries[0].ID)
	})

	t.Run("ByID", func(t *testing.T) {
		entry, err := ByID[Entry](ctx, db, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "20", entry.FormID)
	})

	t.Run("Delete", func(t *testing.T) {
		deleted, err := DeleteEntry(ctx, db, first.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = DeleteEntry(ctx, db, uuid.New())
		require.NoError(t, err)
		assert.False(t, deleted)

		entries, err := ListEntries(ctx, db, "20", 10, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
