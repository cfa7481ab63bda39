package autoconfigure

import (
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TracerProviderBuilder collects the options of the tracer provider being
// built. Customizers add to it and return it.
type TracerProviderBuilder struct {
	options    []sdktrace.TracerProviderOption
	processors int
}

func NewTracerProviderBuilder() *TracerProviderBuilder {
	return &TracerProviderBuilder{}
}

// AddSpanProcessor registers a processor. Processors run in the order they
// were added.
func (b *TracerProviderBuilder) AddSpanProcessor(sp sdktrace.SpanProcessor) *TracerProviderBuilder {
	b.options = append(b.options, sdktrace.WithSpanProcessor(sp))
	b.processors++
	return b
}

func (b *TracerProviderBuilder) SetSampler(sampler sdktrace.Sampler) *TracerProviderBuilder {
	b.options = append(b.options, sdktrace.WithSampler(sampler))
	return b
}

func (b *TracerProviderBuilder) SetResource(res *resource.Resource) *TracerProviderBuilder {
	b.options = append(b.options, sdktrace.WithResource(res))
	return b
}

// SpanProcessorCount returns the number of processors added so far.
func (b *TracerProviderBuilder) SpanProcessorCount() int {
	return b.processors
}

func (b *TracerProviderBuilder) Build() *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(b.options...)
}
