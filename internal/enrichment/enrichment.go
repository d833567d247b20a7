// Package enrichment copies marketing url params, collected by the browser
// into the es-form-storage param, onto the form fields they are mapped to.
package enrichment

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/formbridge/formbridge/internal/config"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/types"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/enrichment")

// Storage key holding the unix millis of the last browser side write
const timestampKey = "timestamp"

type Mapper struct {
	now        func() time.Time
	mapping    map[string][]string
	allowed    []string
	expiration time.Duration
}

func NewMapper(cfg config.EnrichmentConfig) *Mapper {
	return &Mapper{
		now:        time.Now,
		mapping:    cfg.Map,
		allowed:    cfg.Allowed,
		expiration: time.Duration(cfg.ExpirationDays) * 24 * time.Hour,
	}
}

func (m *Mapper) WithClock(now func() time.Time) *Mapper {
	m.now = now
	return m
}

// Fills mapped fields from storage. Fields the user already filled are left alone,
// mapped fields the form does not render are appended as hidden params.
func (m *Mapper) Map(ctx context.Context, params types.Params) types.Params {
	if m == nil || len(m.mapping) == 0 {
		return params
	}

	_, span := tracer.Start(ctx, "Mapper.Map")
	defer span.End()

	storage := m.storage(params)
	if len(storage) == 0 {
		span.AddEvent("no usable storage")
		return params
	}

	tags := make([]string, 0, len(storage))
	for tag := range storage {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	out := params
	for _, tag := range tags {
		for _, field := range m.mapping[tag] {
			existing, ok := out.Get(field)
			if ok && existing.Value != "" {
				continue
			}

			param := types.Param{Name: field, Value: storage[tag], Type: types.FieldTypeHidden}
			if ok {
				param.Type = existing.Type
			}
			out = out.Set(param)
		}
	}

	span.SetAttributes(attribute.Int("mapped", len(tags)))
	return out
}

func (m *Mapper) storage(params types.Params) map[string]string {
	raw := params.Value(types.ParamStorage)
	if raw == "" {
		return nil
	}

	decoded := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		logger.Logger.Debug("ignoring malformed enrichment storage", "error", err)
		return nil
	}

	if ts, ok := decoded[timestampKey].(float64); ok && m.expiration > 0 {
		written := time.UnixMilli(int64(ts))
		if m.now().After(written.Add(m.expiration)) {
			return nil
		}
	}

	out := map[string]string{}
	for tag, value := range decoded {
		if tag == timestampKey || !slices.Contains(m.allowed, tag) {
			continue
		}

		str, ok := value.(string)
		if !ok || str == "" {
			continue
		}
		out[tag] = str
	}

	return out
}
