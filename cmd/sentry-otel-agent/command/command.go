package command

import (
	"errors"
	"fmt"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/agent"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/command"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/command/pipelinecheck"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/command/readwriter"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/command/sdkinfo"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/config"
)

const (
	CheckCommand      = "check"
	SDKVersionCommand = "sdk-version"
)

var ErrUnknownCommand = errors.New("unknown command")

// NeedsAgent reports whether name runs against a started agent.
func NeedsAgent(name string) bool {
	return name == "" || name == CheckCommand
}

func New(name, serviceName string, config *config.Config, a *agent.Agent, readWriter *readwriter.ReadWriter) (command.Command, error) {
	if cmd := build(name, serviceName, config, a, readWriter); cmd != nil {
		return cmd, nil
	}

	return nil, fmt.Errorf("%w %q, expected %s or %s", ErrUnknownCommand, name, CheckCommand, SDKVersionCommand)
}

func build(name, serviceName string, config *config.Config, a *agent.Agent, readWriter *readwriter.ReadWriter) command.Command {
	switch name {
	case "", CheckCommand:
		return &pipelinecheck.Command{Agent: a, ReadWriter: readWriter}
	case SDKVersionCommand:
		return &sdkinfo.Command{Config: config, ReadWriter: readWriter, ServiceName: serviceName}
	}

	return nil
}
