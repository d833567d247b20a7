package integrations

import (
	"context"
)

type metaKey struct{}

// Facts about the browser request a vendor may want to see
type RequestMeta struct {
	RemoteIP  string
	UserAgent string
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(metaKey{}).(RequestMeta)
	return meta
}

// Per form settings stored outside the vendor (folder names, tags, ...)
type FormSettings interface {
	FormSetting(ctx context.Context, formID string, key string) string
}

// In memory FormSettings keyed by form id
type StaticFormSettings map[string]map[string]string

func (s StaticFormSettings) FormSetting(_ context.Context, formID string, key string) string {
	return s[formID][key]
}
