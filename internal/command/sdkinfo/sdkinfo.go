package sdkinfo

import (
	"context"
	"encoding/json"
	"fmt"

	"gitlab.com/gitlab-org/labkit/log"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/agent"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/command"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/command/readwriter"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/config"
)

// Command prints the SDK identity reported to Sentry as JSON.
type Command struct {
	Config      *config.Config
	ReadWriter  *readwriter.ReadWriter
	ServiceName string
	// Options are applied after the ones derived from Config.
	Options []agent.Option
}

func (c *Command) Execute(ctx context.Context) error {
	opts := append(command.AgentOptions(c.ServiceName, c.Config), c.Options...)
	sdk := agent.ResolveSDK(opts...)

	out, err := json.MarshalIndent(sdk, "", "  ")
	if err != nil {
		return fmt.Errorf("sdk-version: %w", err)
	}

	log.WithContextFields(ctx, log.Fields{
		"sdk_name":    sdk.Name,
		"sdk_version": sdk.Version,
		"packages":    len(sdk.Packages),
	}).Debug("sdk-version: resolved")

	fmt.Fprintf(c.ReadWriter.Out, "%s\n", out)
	return nil
}
