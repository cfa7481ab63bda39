package autoconfigure

import (
	"errors"
	"fmt"
	"slices"

	sentryotel "github.com/getsentry/sentry-go/otel"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/contrib/propagators/ot"
	"go.opentelemetry.io/otel/propagation"
)

const noneValue = "none"

// ErrUnknownPropagator is returned for names not in propagatorFactories.
var ErrUnknownPropagator = errors.New("unknown propagator")

var defaultPropagators = []string{"tracecontext", "baggage"}

var propagatorFactories = map[string]func() propagation.TextMapPropagator{
	"tracecontext": func() propagation.TextMapPropagator { return propagation.TraceContext{} },
	"baggage":      func() propagation.TextMapPropagator { return propagation.Baggage{} },
	"b3": func() propagation.TextMapPropagator {
		return b3.New(b3.WithInjectEncoding(b3.B3SingleHeader))
	},
	"b3multi": func() propagation.TextMapPropagator {
		return b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader))
	},
	"jaeger":  func() propagation.TextMapPropagator { return jaeger.Jaeger{} },
	"ottrace": func() propagation.TextMapPropagator { return ot.OT{} },
	"sentry":  sentryotel.NewSentryPropagator,
}

// newPropagator composes the named propagators in order. Repeated names are
// only used once and "none" disables propagation altogether.
func newPropagator(names []string) (propagation.TextMapPropagator, error) {
	if len(names) == 0 {
		names = defaultPropagators
	}

	if slices.Contains(names, noneValue) {
		return propagation.NewCompositeTextMapPropagator(), nil
	}

	var (
		seen        = map[string]bool{}
		propagators []propagation.TextMapPropagator
	)

	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		factory, ok := propagatorFactories[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPropagator, name)
		}
		propagators = append(propagators, factory())
	}

	return propagation.NewCompositeTextMapPropagator(propagators...), nil
}
