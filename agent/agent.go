// Package agent starts an OpenTelemetry tracing pipeline that reports to
// Sentry.
//
// Sentry is only initialized when SENTRY_DSN or SENTRY_PROPERTIES_FILE is set.
// Otherwise the pipeline is built as configured by OTEL_* variables, with the
// Sentry propagator as the default.
//
//	a, err := agent.Start(ctx, agent.WithServiceName("checkout"))
//	if err != nil {
//		return err
//	}
//	defer a.Shutdown(context.Background())
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"gitlab.com/gitlab-org/labkit/log"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/autoconfigure"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/bootstrap"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/manifest"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/registrar"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/sdkversion"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/sentryclient"
)

const defaultFlushTimeout = 2 * time.Second

// ErrFlushTimeout is returned by Shutdown when buffered Sentry events could
// not be sent in time.
var ErrFlushTimeout = errors.New("sentry: flush timed out")

type options struct {
	serviceName      string
	manifestDirs     []string
	manifestPattern  string
	disableBuildInfo bool
	properties       map[string]string
	environ          []string
	hub              *sentry.Hub
	install          bool
}

// Option configures Start.
type Option func(*options)

// WithServiceName is the service name reported when otel.service.name is not set.
func WithServiceName(name string) Option {
	return func(o *options) {
		o.serviceName = name
	}
}

// WithManifestDirs adds directories searched for packaging manifests.
func WithManifestDirs(dirs ...string) Option {
	return func(o *options) {
		o.manifestDirs = append(o.manifestDirs, dirs...)
	}
}

// WithManifestPattern replaces the glob used to find manifests in the
// manifest directories.
func WithManifestPattern(pattern string) Option {
	return func(o *options) {
		o.manifestPattern = pattern
	}
}

// WithoutBuildInfo stops the agent from reading versions from the build
// information of the running binary.
func WithoutBuildInfo() Option {
	return func(o *options) {
		o.disableBuildInfo = true
	}
}

// WithProperties sets pipeline properties such as otel.traces.exporter.
// OTEL_* environment variables take precedence.
func WithProperties(props map[string]string) Option {
	return func(o *options) {
		for k, v := range props {
			o.properties[k] = v
		}
	}
}

// WithEnviron replaces the process environment, in os.Environ() format, for
// both the Sentry and the OpenTelemetry configuration.
func WithEnviron(environ []string) Option {
	return func(o *options) {
		o.environ = environ
	}
}

// WithHub binds the Sentry client to hub instead of the current hub. Spans
// started without a hub in their context are reported to hub.
func WithHub(hub *sentry.Hub) Option {
	return func(o *options) {
		o.hub = hub
	}
}

// WithoutInstall leaves the global tracer provider and propagator untouched.
func WithoutInstall() Option {
	return func(o *options) {
		o.install = false
	}
}

// Agent is a running tracing pipeline.
type Agent struct {
	sdk      *autoconfigure.SDK
	provider *registrar.Provider
	client   *sentryclient.HubClient
}

// Start initializes Sentry when configured, builds the tracing pipeline and
// installs it as the global OpenTelemetry tracer provider and propagator.
// Start fails only when the pipeline configuration is invalid; Sentry
// initialization errors are logged.
func Start(ctx context.Context, opts ...Option) (*Agent, error) {
	o := &options{properties: map[string]string{}, install: true}
	for _, opt := range opts {
		opt(o)
	}

	var lookupEnv func(string) (string, bool)
	if o.environ != nil {
		lookupEnv = environLookup(o.environ)
	}

	client := sentryclient.NewHubClient(o.hub, lookupEnv)
	provider := registrar.New(&bootstrap.Gate{
		LookupEnv: lookupEnv,
		Client:    client,
		Scanner:   manifest.NewScanner(o.lister()),
	})
	provider.Hub = client.Hub()

	autoOpts := []autoconfigure.Option{
		autoconfigure.WithProviders(provider),
		autoconfigure.WithUserProperties(o.properties),
		autoconfigure.WithServiceName(o.serviceName),
	}
	if o.environ != nil {
		autoOpts = append(autoOpts, autoconfigure.WithEnviron(o.environ))
	}

	sdk, err := autoconfigure.New(autoOpts...).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("agent: build tracing pipeline: %w", err)
	}

	if o.install {
		sdk.Install()
	}

	log.WithContextFields(ctx, log.Fields{
		"service_name":   o.serviceName,
		"sentry_enabled": provider.Initialized(),
		"sdk_name":       client.CurrentSDK().Name,
		"sdk_version":    client.CurrentSDK().Version,
	}).Info("agent: started")

	return &Agent{sdk: sdk, provider: provider, client: client}, nil
}

// ResolveSDK returns the SDK identity Start would report to Sentry, without
// initializing anything. Only the manifest options apply.
func ResolveSDK(opts ...Option) *sdkversion.Descriptor {
	o := &options{properties: map[string]string{}}
	for _, opt := range opts {
		opt(o)
	}

	return sdkversion.Resolve(sentryclient.DefaultSDK(), manifest.NewScanner(o.lister()).Scan())
}

func (o *options) lister() manifest.Lister {
	var listers manifest.MultiLister
	if !o.disableBuildInfo {
		listers = append(listers, &manifest.BuildInfoLister{})
	}

	for _, dir := range o.manifestDirs {
		lister := manifest.NewDirLister(dir)
		if o.manifestPattern != "" {
			lister.Pattern = o.manifestPattern
		}
		listers = append(listers, lister)
	}

	return listers
}

func environLookup(environ []string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		for _, kv := range environ {
			if name, value, ok := strings.Cut(kv, "="); ok && name == key {
				return value, true
			}
		}
		return "", false
	}
}

func (a *Agent) TracerProvider() *sdktrace.TracerProvider {
	return a.sdk.TracerProvider
}

// Tracer returns a tracer of the agent's tracer provider, whether or not it
// was installed globally.
func (a *Agent) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return a.sdk.TracerProvider.Tracer(name, opts...)
}

func (a *Agent) Propagator() propagation.TextMapPropagator {
	return a.sdk.Propagator
}

// Resource describes the process in every span.
func (a *Agent) Resource() *resource.Resource {
	return a.sdk.Resource
}

// Properties returns the properties the pipeline was built from.
func (a *Agent) Properties() autoconfigure.Properties {
	return a.sdk.Properties
}

// SpanProcessors returns the number of span processors of the pipeline.
func (a *Agent) SpanProcessors() int {
	return a.sdk.SpanProcessors
}

// SentryEnabled reports whether Sentry was initialized by Start.
func (a *Agent) SentryEnabled() bool {
	return a.provider.Initialized()
}

// SentryError returns the error Sentry failed to initialize with, if any.
func (a *Agent) SentryError() error {
	return a.provider.Err()
}

// SDK returns the SDK identity reported to Sentry.
func (a *Agent) SDK() *sdkversion.Descriptor {
	return a.client.CurrentSDK()
}

// Shutdown flushes pending spans and Sentry events and stops the pipeline.
// Without a deadline on ctx, Sentry events are flushed for up to two seconds.
func (a *Agent) Shutdown(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.sdk.Shutdown(ctx)
	})

	if a.provider.Initialized() {
		g.Go(func() error {
			timeout := defaultFlushTimeout
			if deadline, ok := ctx.Deadline(); ok {
				timeout = time.Until(deadline)
			}

			if !a.client.Hub().Flush(timeout) {
				return ErrFlushTimeout
			}
			return nil
		})
	}

	return g.Wait()
}
