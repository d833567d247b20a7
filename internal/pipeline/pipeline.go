// Package pipeline holds ordered lists of transforms that may rewrite a value
// at a named stage of an integration call.
package pipeline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/pipeline")

type Transform[T any] func(ctx context.Context, value T) T

type Pipeline[T any] struct {
	stage      string
	transforms []Transform[T]
}

func New[T any](stage string, transforms ...Transform[T]) *Pipeline[T] {
	return &Pipeline[T]{stage: stage, transforms: transforms}
}

// Appends transforms. They run after the ones already registered.
func (p *Pipeline[T]) Register(transforms ...Transform[T]) *Pipeline[T] {
	p.transforms = append(p.transforms, transforms...)
	return p
}

func (p *Pipeline[T]) Stage() string {
	if p == nil {
		return ""
	}

	return p.stage
}

func (p *Pipeline[T]) Len() int {
	if p == nil {
		return 0
	}

	return len(p.transforms)
}

// Runs every transform in registration order. A nil pipeline returns value unchanged.
func (p *Pipeline[T]) Apply(ctx context.Context, value T) T {
	if p.Len() == 0 {
		return value
	}

	ctx, span := tracer.Start(ctx, "Pipeline.Apply", trace.WithAttributes(
		attribute.String("stage", p.stage),
		attribute.Int("transforms", len(p.transforms)),
	))
	defer span.End()

	for _, transform := range p.transforms {
		value = transform(ctx, value)
	}

	return value
}
