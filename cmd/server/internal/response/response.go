package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/formbridge/formbridge/internal/types"
)

var (
	InternalServerError = echo.NewHTTPError(
		http.StatusInternalServerError,
		types.StringError("something went wrong"),
	)
	NotFoundError = echo.NewHTTPError(http.StatusNotFound, types.StringError("not found"))
)

// List endpoints wrap their results so pagination can be added without breaking clients
type List[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func NewList[T any](items []T) List[T] {
	if items == nil {
		items = []T{}
	}

	return List[T]{Items: items, Count: len(items)}
}

// Integration item as offered in the admin form picker
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Message struct {
	Message string `json:"message"`
}

type Ping struct {
	Status string `json:"status"`
	// Integrations with credentials
	Integrations []string `json:"integrations"`
}

type Entry struct {
	CreatedAt time.Time       `json:"created_at"`
	ID        string          `json:"id"`
	FormID    string          `json:"form_id"`
	Value     json.RawMessage `json:"entry_value"`
}

func NewEntry(id uuid.UUID, formID string, value []byte, createdAt time.Time) Entry {
	return Entry{CreatedAt: createdAt, ID: id.String(), FormID: formID, Value: value}
}
