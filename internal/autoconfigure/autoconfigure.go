// Package autoconfigure builds the OpenTelemetry tracing pipeline from
// properties and lets integrations customize it before it is built.
//
// Integrations implement CustomizerProvider. Each provider is invoked once,
// when the AutoConfiguration is created, and registers callbacks that are
// only run later by Build:
//
//   - a TracerProviderCustomizer is called once per Build, after the exporters
//     configured by properties have been added;
//   - a PropertiesSupplier may be called any number of times and provides
//     defaults. Properties set by the user always take precedence.
//
// Properties are resolved from, in increasing order of precedence, supplier
// defaults, the user properties passed with WithUserProperties and OTEL_*
// environment variables (OTEL_TRACES_EXPORTER sets otel.traces.exporter).
package autoconfigure

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"gitlab.com/gitlab-org/labkit/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/metrics"
)

const envPrefix = "OTEL_"

// TracerProviderCustomizer adjusts the tracer provider being built and returns
// the builder to continue with.
type TracerProviderCustomizer func(*TracerProviderBuilder, Properties) *TracerProviderBuilder

// PropertiesSupplier returns default properties.
type PropertiesSupplier func() map[string]string

// Registry receives the callbacks of a CustomizerProvider.
type Registry interface {
	AddTracerProviderCustomizer(TracerProviderCustomizer) Registry
	AddPropertiesSupplier(PropertiesSupplier) Registry
}

// CustomizerProvider is implemented by integrations that customize the
// pipeline.
type CustomizerProvider interface {
	Customize(Registry)
}

type AutoConfiguration struct {
	providers      []CustomizerProvider
	customizers    []TracerProviderCustomizer
	suppliers      []PropertiesSupplier
	userProperties map[string]string
	environ        []string
	serviceName    string
	console        io.Writer
}

type Option func(*AutoConfiguration)

// WithProviders registers the providers, invoked in order by New.
func WithProviders(providers ...CustomizerProvider) Option {
	return func(a *AutoConfiguration) {
		a.providers = append(a.providers, providers...)
	}
}

// WithUserProperties sets properties that override supplier defaults.
func WithUserProperties(props map[string]string) Option {
	return func(a *AutoConfiguration) {
		for k, v := range props {
			a.userProperties[normalizeProperty(k)] = v
		}
	}
}

// WithEnviron replaces os.Environ() as the source of OTEL_* variables.
func WithEnviron(environ []string) Option {
	return func(a *AutoConfiguration) {
		a.environ = environ
	}
}

// WithServiceName is the service name used when no property sets one.
func WithServiceName(name string) Option {
	return func(a *AutoConfiguration) {
		a.serviceName = name
	}
}

// WithConsoleWriter is where the console exporter writes, os.Stdout by default.
func WithConsoleWriter(w io.Writer) Option {
	return func(a *AutoConfiguration) {
		a.console = w
	}
}

func New(opts ...Option) *AutoConfiguration {
	a := &AutoConfiguration{
		userProperties: map[string]string{},
		console:        os.Stdout,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.environ == nil {
		a.environ = os.Environ()
	}

	for _, provider := range a.providers {
		provider.Customize(a)
	}

	return a
}

func (a *AutoConfiguration) AddTracerProviderCustomizer(customizer TracerProviderCustomizer) Registry {
	a.customizers = append(a.customizers, customizer)
	return a
}

func (a *AutoConfiguration) AddPropertiesSupplier(supplier PropertiesSupplier) Registry {
	a.suppliers = append(a.suppliers, supplier)
	return a
}

// Properties resolves the properties the pipeline is built from.
func (a *AutoConfiguration) Properties() Properties {
	props := Properties{}

	for _, supplier := range a.suppliers {
		for k, v := range supplier() {
			props[normalizeProperty(k)] = v
		}
	}

	for k, v := range a.userProperties {
		props[k] = v
	}

	for _, kv := range a.environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, envPrefix) {
			continue
		}
		props[propertyFromEnv(name)] = value
	}

	return props
}

// SDK is a built pipeline.
type SDK struct {
	TracerProvider *sdktrace.TracerProvider
	Propagator     propagation.TextMapPropagator
	Resource       *resource.Resource
	Properties     Properties
	SpanProcessors int
}

// Install makes the pipeline the global OpenTelemetry tracer provider and
// propagator.
func (s *SDK) Install() {
	otel.SetTracerProvider(s.TracerProvider)
	otel.SetTextMapPropagator(s.Propagator)
}

// Shutdown flushes and stops every span processor.
func (s *SDK) Shutdown(ctx context.Context) error {
	return s.TracerProvider.Shutdown(ctx)
}

// Build resolves the properties and builds the pipeline. Each customizer is
// invoked exactly once.
func (a *AutoConfiguration) Build(ctx context.Context) (*SDK, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineBuildDuration.Observe(time.Since(start).Seconds())
	}()

	props := a.Properties()

	propagator, err := newPropagator(props.List(PropagatorsProperty))
	if err != nil {
		return nil, err
	}

	sampler, err := newSampler(props)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, props, a.serviceName)
	if err != nil {
		return nil, err
	}

	exporters, err := newSpanExporters(ctx, props, a.console, a.serviceName)
	if err != nil {
		return nil, err
	}

	builder := NewTracerProviderBuilder().SetResource(res).SetSampler(sampler)
	for _, exporter := range exporters {
		builder.AddSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter))
	}

	for _, customize := range a.customizers {
		if next := customize(builder, props); next != nil {
			builder = next
		}
	}

	sdk := &SDK{
		TracerProvider: builder.Build(),
		Propagator:     propagator,
		Resource:       res,
		Properties:     props,
		SpanProcessors: builder.SpanProcessorCount(),
	}

	log.WithContextFields(ctx, log.Fields{
		"propagators":     propagator.Fields(),
		"exporters":       props.List(TracesExporterProperty),
		"span_processors": sdk.SpanProcessors,
	}).Info("tracing pipeline built")

	return sdk, nil
}
