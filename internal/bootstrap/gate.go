// Package bootstrap initializes the Sentry client when the environment asks
// for it.
package bootstrap

import (
	"os"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/manifest"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/metrics"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/sdkversion"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/sentryclient"
)

const (
	PropertiesFileEnv = sentryclient.PropertiesFileEnv
	DSNEnv            = "SENTRY_DSN"
)

// Gate initializes Client once SENTRY_DSN or SENTRY_PROPERTIES_FILE is set.
// Without either the client is left alone: it has either been initialized by
// the application or stays disabled.
type Gate struct {
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	Client    sentryclient.Client
	// Scanner provides the manifests the reported SDK version is resolved from.
	Scanner *manifest.Scanner
}

// MaybeInitialize reports whether initialization was attempted, and the error
// of the client if it failed. It is not safe to call more than once per
// process.
func (g *Gate) MaybeInitialize() (bool, error) {
	lookupEnv := g.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	_, hasPropertiesFile := lookupEnv(PropertiesFileEnv)
	_, hasDSN := lookupEnv(DSNEnv)
	if !hasPropertiesFile && !hasDSN {
		metrics.BootstrapTotal.WithLabelValues(metrics.BootstrapSkipped).Inc()
		return false, nil
	}

	if err := g.Client.Init(g.configure); err != nil {
		metrics.BootstrapTotal.WithLabelValues(metrics.BootstrapFailed).Inc()
		return true, err
	}

	metrics.BootstrapTotal.WithLabelValues(metrics.BootstrapInitialized).Inc()
	return true, nil
}

func (g *Gate) configure(opts *sentryclient.Options) {
	opts.EnableExternalConfiguration = true
	opts.Instrumenter = sentryclient.InstrumenterOtel

	if sdk := sdkversion.Resolve(opts.SDK, g.Scanner.Scan()); sdk != nil {
		opts.SDK = sdk
	}
}
