package command

import (
	"context"
	"time"

	"gitlab.com/gitlab-org/labkit/correlation"
	"gitlab.com/gitlab-org/labkit/log"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/agent"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/config"
)

const shutdownTimeout = 5 * time.Second

type Command interface {
	Execute(ctx context.Context) error
}

// AgentOptions translates the configuration into agent options. The service
// name from the configuration wins over serviceName.
func AgentOptions(serviceName string, cfg *config.Config) []agent.Option {
	if cfg.ServiceName != "" {
		serviceName = cfg.ServiceName
	}

	opts := []agent.Option{
		agent.WithServiceName(serviceName),
		agent.WithManifestDirs(cfg.Manifest.SearchPaths...),
		agent.WithProperties(cfg.Otel),
	}
	if cfg.Manifest.Pattern != "" {
		opts = append(opts, agent.WithManifestPattern(cfg.Manifest.Pattern))
	}
	if cfg.Manifest.DisableBuildInfo {
		opts = append(opts, agent.WithoutBuildInfo())
	}

	return opts
}

// Context generates a background context from which all other contexts in the
// process should derive from, as it has a service name and initial correlation
// ID set.
func Context(serviceName string) context.Context {
	ctx := correlation.ContextWithClientName(context.Background(), serviceName)

	correlationID := correlation.ExtractFromContext(ctx)
	if correlationID == "" {
		correlationID := correlation.SafeRandomID()
		ctx = correlation.ContextWithCorrelation(ctx, correlationID)
	}

	return ctx
}

// Setup() starts the agent from the configuration file and returns it with the
// context of Context. The returned function shuts the agent down.
func Setup(serviceName string, cfg *config.Config, opts ...agent.Option) (context.Context, *agent.Agent, func(), error) {
	ctx := Context(serviceName)

	a, err := agent.Start(ctx, append(AgentOptions(serviceName, cfg), opts...)...)
	if err != nil {
		return ctx, nil, func() {}, err
	}

	return ctx, a, func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := a.Shutdown(shutdownCtx); err != nil {
			log.WithContextFields(ctx, log.Fields{}).WithError(err).Warn("agent: shutdown failed")
		}
	}, nil
}
