package agent

import (
	"context"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/require"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/autoconfigure"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/sdkversion"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/sentryclient"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/testhelper"
)

const agentManifest = `Manifest-Version: 1.0
Sentry-Opentelemetry-SDK-Name: sentry.go.opentelemetry.agent
Sentry-Version-Name: 1.2.0
Sentry-Opentelemetry-Version-Name: 1.43.0
`

func start(t *testing.T, environ []string, opts ...Option) *Agent {
	t.Helper()

	dir := t.TempDir()
	testhelper.WriteManifest(t, dir, "agent", agentManifest)

	opts = append([]Option{
		WithEnviron(environ),
		WithManifestDirs(dir),
		WithoutBuildInfo(),
		WithHub(sentry.NewHub(nil, sentry.NewScope())),
		WithoutInstall(),
		WithProperties(map[string]string{autoconfigure.TracesExporterProperty: "none"}),
	}, opts...)

	a, err := Start(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	return a
}

func TestStartWithoutSentry(t *testing.T) {
	a := start(t, []string{}, WithServiceName("checkout"))

	require.False(t, a.SentryEnabled())
	require.NoError(t, a.SentryError())
	require.Equal(t, sentryclient.DefaultSDK(), a.SDK())
	require.Equal(t, 1, a.SpanProcessors())
	require.Equal(t, "sentry", a.Properties().String(autoconfigure.PropagatorsProperty))
	require.ElementsMatch(t, []string{"sentry-trace", "baggage"}, a.Propagator().Fields())
}

func TestStartWithSentry(t *testing.T) {
	a := start(t, []string{"SENTRY_DSN=https://public@sentry.example.com/1"})

	require.True(t, a.SentryEnabled())
	require.NoError(t, a.SentryError())
	require.Equal(t, &sdkversion.Descriptor{
		Name:    "sentry.go.opentelemetry.agent",
		Version: "1.2.0",
		Packages: []sdkversion.Package{
			{Name: sdkversion.SelfPackage, Version: "1.2.0"},
			{Name: sdkversion.OtelSDKPackage, Version: "1.43.0"},
		},
	}, a.SDK())

	_, span := a.Tracer("test").Start(context.Background(), "span")
	span.End()

	require.NoError(t, a.Shutdown(context.Background()))
}

func TestStartWithHubReportsTransactions(t *testing.T) {
	hub := sentry.NewHub(nil, sentry.NewScope())
	a := start(t, []string{
		"SENTRY_DSN=https://public@sentry.example.com/1",
		"SENTRY_ENABLE_TRACING=true",
		"SENTRY_TRACES_SAMPLE_RATE=1",
	}, WithHub(hub))
	require.True(t, a.SentryEnabled())

	var transactions []*sentry.Event
	hub.Client().AddEventProcessor(func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
		if event.Type == "transaction" {
			transactions = append(transactions, event)
		}
		return nil
	})

	_, span := a.Tracer("test").Start(context.Background(), "checkout")
	span.End()

	require.Len(t, transactions, 1)
	require.Equal(t, "sentry.go.opentelemetry.agent", transactions[0].Sdk.Name)
}

func TestStartWithInvalidDSN(t *testing.T) {
	a := start(t, []string{"SENTRY_DSN=not a dsn"})

	require.False(t, a.SentryEnabled())
	require.Error(t, a.SentryError())
	require.Equal(t, 1, a.SpanProcessors())
}

func TestStartEnvironmentOverridesProperties(t *testing.T) {
	a := start(t, []string{"OTEL_PROPAGATORS=tracecontext,baggage"})

	require.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, a.Propagator().Fields())
}

func TestStartInvalidPipeline(t *testing.T) {
	_, err := Start(context.Background(),
		WithEnviron([]string{"OTEL_PROPAGATORS=xray"}),
		WithoutBuildInfo(),
		WithoutInstall(),
	)

	require.ErrorIs(t, err, autoconfigure.ErrUnknownPropagator)
}

func TestEnvironLookup(t *testing.T) {
	lookup := environLookup([]string{"SENTRY_DSN=", "A=b=c", "BROKEN"})

	v, ok := lookup("SENTRY_DSN")
	require.True(t, ok)
	require.Empty(t, v)

	v, ok = lookup("A")
	require.True(t, ok)
	require.Equal(t, "b=c", v)

	_, ok = lookup("BROKEN")
	require.False(t, ok)
}

func TestResolveSDK(t *testing.T) {
	dir := t.TempDir()
	testhelper.WriteManifest(t, dir, "agent", agentManifest)
	testhelper.WriteManifest(t, dir, "contrib", "Sentry-Opentelemetry-SDK-Name: sentry.go.opentelemetry.agent\n"+
		"Sentry-Version-Name: 1.3.0\nSentry-Opentelemetry-Contrib-Version-Name: 0.64.0\n")

	sdk := ResolveSDK(WithManifestDirs(dir), WithoutBuildInfo())

	require.Equal(t, "sentry.go.opentelemetry.agent", sdk.Name)
	require.Equal(t, "1.3.0", sdk.Version)
	require.Equal(t, []sdkversion.Package{
		{Name: sdkversion.SelfPackage, Version: "1.2.0"},
		{Name: sdkversion.OtelSDKPackage, Version: "1.43.0"},
		{Name: sdkversion.SelfPackage, Version: "1.3.0"},
		{Name: sdkversion.OtelContribPackage, Version: "0.64.0"},
	}, sdk.Packages)
}

func TestResolveSDKWithoutManifests(t *testing.T) {
	sdk := ResolveSDK(WithManifestDirs(t.TempDir()), WithoutBuildInfo())

	require.Equal(t, sentryclient.DefaultSDK(), sdk)
}
