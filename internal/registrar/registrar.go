// Package registrar plugs Sentry into the tracing pipeline: it bootstraps the
// Sentry client and registers the Sentry span processor and propagator.
package registrar

import (
	"github.com/getsentry/sentry-go"
	sentryotel "github.com/getsentry/sentry-go/otel"
	"gitlab.com/gitlab-org/labkit/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/autoconfigure"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/bootstrap"
)

// Provider is an autoconfigure.CustomizerProvider.
type Provider struct {
	Gate *bootstrap.Gate
	// NewSpanProcessor defaults to sentryotel.NewSentrySpanProcessor.
	NewSpanProcessor func() sdktrace.SpanProcessor
	// Hub receives the transactions of spans whose context carries no hub.
	// Nil means the current hub.
	Hub *sentry.Hub

	initialized bool
	err         error
}

func New(gate *bootstrap.Gate) *Provider {
	return &Provider{Gate: gate, NewSpanProcessor: sentryotel.NewSentrySpanProcessor}
}

// Customize initializes Sentry if the environment asks for it, then registers
// exactly one tracer provider customizer and one properties supplier. Failing
// to initialize Sentry is logged and does not stop the pipeline from being
// built.
func (p *Provider) Customize(reg autoconfigure.Registry) {
	p.bootstrap()

	reg.AddTracerProviderCustomizer(p.configureTracerProvider).
		AddPropertiesSupplier(defaultProperties)
}

// Initialized reports whether the Sentry client was initialized by Customize.
func (p *Provider) Initialized() bool {
	return p.initialized
}

// Err returns the error the Sentry client failed to initialize with.
func (p *Provider) Err() error {
	return p.err
}

func (p *Provider) bootstrap() {
	if p.Gate == nil {
		return
	}

	attempted, err := p.Gate.MaybeInitialize()
	switch {
	case err != nil:
		p.err = err
		log.WithError(err).Warn("sentry: failed to initialize, events will not be sent")
	case attempted:
		p.initialized = true
		log.Info("sentry: initialized from environment")
	default:
		log.WithFields(log.Fields{}).Debug("sentry: neither SENTRY_DSN nor SENTRY_PROPERTIES_FILE set, skipping initialization")
	}
}

func (p *Provider) configureTracerProvider(b *autoconfigure.TracerProviderBuilder, _ autoconfigure.Properties) *autoconfigure.TracerProviderBuilder {
	newSpanProcessor := p.NewSpanProcessor
	if newSpanProcessor == nil {
		newSpanProcessor = sentryotel.NewSentrySpanProcessor
	}

	sp := newSpanProcessor()
	if p.Hub != nil && p.Hub != sentry.CurrentHub() {
		sp = &hubSpanProcessor{SpanProcessor: sp, hub: p.Hub}
	}

	return b.AddSpanProcessor(sp)
}

// defaultProperties makes the Sentry propagator the default. It returns a new
// map on every call.
func defaultProperties() map[string]string {
	return map[string]string{autoconfigure.PropagatorsProperty: "sentry"}
}
