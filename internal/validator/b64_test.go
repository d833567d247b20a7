package validator

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func encodedOf(length int) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("a", length)))
}

func TestInlineAttachmentSize(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.True(t, ValidateInlineAttachmentSize(len(encodedOf(MaxInlineAttachmentBytes))), "max size should work")
	})

	t.Run("ValidSmall", func(t *testing.T) {
		assert.True(t, ValidateInlineAttachmentSize(len(encodedOf(10))), "small size should work")
	})

	t.Run("Invalid", func(t *testing.T) {
		assert.False(t, ValidateInlineAttachmentSize(len(encodedOf(MaxInlineAttachmentBytes+100))), "too big")
	})
}

type tagged struct {
	Name  string `json:"name" validate:"required"`
	Query string `param:"query" json:"ignored" validate:"required"`
}

func TestCreate(t *testing.T) {
	v := Create()

	assert.NoError(t, v.Validate(&tagged{Name: "a", Query: "b"}))

	err := v.Validate(&tagged{})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "'name'")
		assert.Contains(t, err.Error(), "'query'")
	}
}
