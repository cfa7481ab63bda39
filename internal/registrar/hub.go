package registrar

import (
	"context"

	"github.com/getsentry/sentry-go"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// hubSpanProcessor makes the Sentry span processor start transactions on hub.
// A hub already carried by the parent context is left in place.
type hubSpanProcessor struct {
	sdktrace.SpanProcessor
	hub *sentry.Hub
}

func (p *hubSpanProcessor) withHub(ctx context.Context) context.Context {
	if sentry.GetHubFromContext(ctx) != nil {
		return ctx
	}
	return sentry.SetHubOnContext(ctx, p.hub)
}

func (p *hubSpanProcessor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	p.SpanProcessor.OnStart(p.withHub(parent), s)
}

func (p *hubSpanProcessor) ForceFlush(ctx context.Context) error {
	return p.SpanProcessor.ForceFlush(p.withHub(ctx))
}

func (p *hubSpanProcessor) Shutdown(ctx context.Context) error {
	return p.SpanProcessor.Shutdown(p.withHub(ctx))
}
