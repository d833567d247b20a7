// Package labels resolves label keys produced by integration clients into
// human readable messages.
package labels

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/formbridge/formbridge/internal/types"
)

// Prefix of form settings that override a single label for that form
const FormSettingPrefix = "label."

type Labels struct {
	messages map[string]string
}

// Built in catalog with optional overrides applied on top
func New(overrides map[string]string) *Labels {
	messages := maps.Clone(defaults)
	maps.Copy(messages, overrides)

	return &Labels{messages: messages}
}

// Reads a flat key: message YAML file of overrides. An empty path yields the built in catalog.
func LoadFile(path string) (*Labels, error) {
	if path == "" {
		return New(nil), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels file: %w", err)
	}

	overrides := map[string]string{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse labels file: %w", err)
	}

	return New(overrides), nil
}

// Message for key. Unknown keys are returned verbatim so nothing is ever blank.
func (l *Labels) Get(key string) string {
	if message, ok := l.messages[key]; ok {
		return message
	}

	return key
}

func (l *Labels) Has(key string) bool {
	_, ok := l.messages[key]
	return ok
}

// Copy with per form overrides. Settings without the label prefix are ignored.
func (l *Labels) ForForm(settings map[string]string) *Labels {
	overrides := map[string]string{}
	for key, value := range settings {
		name, ok := strings.CutPrefix(key, FormSettingPrefix)
		if ok && name != "" && value != "" {
			overrides[name] = value
		}
	}

	if len(overrides) == 0 {
		return l
	}

	messages := maps.Clone(l.messages)
	maps.Copy(messages, overrides)
	return &Labels{messages: messages}
}

func (l *Labels) Translate(fieldErrors types.FieldErrors) types.FieldErrors {
	if len(fieldErrors) == 0 {
		return nil
	}

	out := make(types.FieldErrors, len(fieldErrors))
	for field, key := range fieldErrors {
		out[field] = l.Get(key)
	}

	return out
}

// Envelope with message and field errors resolved to human readable text
func (l *Labels) Localize(envelope types.Envelope) types.Envelope {
	return envelope.
		WithValidation(l.Translate(envelope.Data.Validation)).
		WithMessage(l.Get(envelope.Message))
}
