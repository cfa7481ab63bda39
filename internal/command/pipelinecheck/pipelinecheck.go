package pipelinecheck

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/agent"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/autoconfigure"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/command/readwriter"
)

var (
	sentryMessage   = "Sentry"
	pipelineMessage = "Tracing pipeline"
)

// Command reports the state of a started agent.
type Command struct {
	Agent      *agent.Agent
	ReadWriter *readwriter.ReadWriter
}

func (c *Command) Execute(_ context.Context) error {
	if err := c.Agent.SentryError(); err != nil {
		return fmt.Errorf("%v: FAILED - %v", sentryMessage, err)
	}

	if c.Agent.SentryEnabled() {
		sdk := c.Agent.SDK()
		fmt.Fprintf(c.ReadWriter.Out, "%v: OK (%v %v)\n", sentryMessage, sdk.Name, sdk.Version)
	} else {
		fmt.Fprintf(c.ReadWriter.Out, "%v: not configured, set SENTRY_DSN or SENTRY_PROPERTIES_FILE\n", sentryMessage)
	}

	props := c.Agent.Properties()

	fields := c.Agent.Propagator().Fields()
	slices.Sort(fields)

	exporters := props.List(autoconfigure.TracesExporterProperty)
	if len(exporters) == 0 {
		exporters = []string{"otlp"}
	}

	fmt.Fprintf(c.ReadWriter.Out, "%v: OK\n", pipelineMessage)
	fmt.Fprintf(c.ReadWriter.Out, "  propagators: %v\n", props.StringDefault(autoconfigure.PropagatorsProperty, "tracecontext,baggage"))
	fmt.Fprintf(c.ReadWriter.Out, "  propagated headers: %v\n", strings.Join(fields, ", "))
	fmt.Fprintf(c.ReadWriter.Out, "  exporters: %v\n", strings.Join(exporters, ", "))
	fmt.Fprintf(c.ReadWriter.Out, "  span processors: %d\n", c.Agent.SpanProcessors())

	return nil
}
