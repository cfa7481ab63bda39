// Package main implements the sentry-otel-agent command, which resolves and
// checks the Sentry OpenTelemetry setup of a host.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/peterbourgon/ff/v3"
	"gitlab.com/gitlab-org/labkit/log"

	agentCmd "gitlab.com/gitlab-org/sentry-opentelemetry-agent/cmd/sentry-otel-agent/command"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/boring"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/command"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/command/readwriter"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/config"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/executable"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/logger"
)

var (
	// Version is the current version of sentry-otel-agent
	Version = "(unknown version)" // Set at build time in the Makefile
	// BuildTime signifies the time the binary was build
	BuildTime = "19700101.000000" // Set at build time in the Makefile
)

func loadConfig(configDir, rootDir string) (*config.Config, error) {
	if configDir != "" {
		return config.NewFromDir(configDir)
	}

	cfg, err := config.NewFromDir(rootDir)
	if errors.Is(err, fs.ErrNotExist) {
		return &config.Config{RootDir: rootDir}, nil
	}
	return cfg, err
}

func main() {
	if len(os.Args) == 2 && os.Args[1] == "-version" {
		fmt.Printf("%s %s-%s\n", path.Base(os.Args[0]), Version, BuildTime)
		os.Exit(0)
	}

	readWriter := &readwriter.ReadWriter{
		Out:    os.Stdout,
		In:     os.Stdin,
		ErrOut: os.Stderr,
	}

	flags := flag.NewFlagSet(executable.Agent, flag.ExitOnError)
	configDir := flags.String("config-dir", "", "The directory the config is in, defaults to the agent root directory")
	if err := ff.Parse(flags, os.Args[1:], ff.WithEnvVarPrefix("SENTRY_OTEL_AGENT")); err != nil {
		fmt.Fprintf(readWriter.ErrOut, "Flag error: %v\n", err)
		os.Exit(1)
	}

	executable, err := executable.New(executable.Agent)
	if err != nil {
		fmt.Fprintln(readWriter.ErrOut, "Failed to determine executable, exiting")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configDir, executable.RootDir)
	if err != nil {
		fmt.Fprintf(readWriter.ErrOut, "Failed to read config, exiting: %v\n", err)
		os.Exit(1)
	}

	cfg.OverrideFromEnvironment(nil)
	if err := cfg.IsSane(); err != nil {
		fmt.Fprintf(readWriter.ErrOut, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyDefaults()

	logCloser := logger.Configure(cfg)
	boring.CheckBoring()

	code := run(flags.Arg(0), executable.Name, cfg, readWriter)
	logCloser.Close()

	os.Exit(code)
}

func run(name, serviceName string, cfg *config.Config, readWriter *readwriter.ReadWriter) int {
	if !agentCmd.NeedsAgent(name) {
		cmd, err := agentCmd.New(name, serviceName, cfg, nil, readWriter)
		if err != nil {
			fmt.Fprintf(readWriter.ErrOut, "%v\n", err)
			return 1
		}

		if err := cmd.Execute(command.Context(serviceName)); err != nil {
			fmt.Fprintf(readWriter.ErrOut, "%v\n", err)
			return 1
		}
		return 0
	}

	ctx, a, finished, err := command.Setup(serviceName, cfg)
	defer finished()
	if err != nil {
		log.WithContextFields(ctx, log.Fields{}).WithError(err).Error("failed to start agent")
		fmt.Fprintf(readWriter.ErrOut, "%v\n", err)
		return 1
	}

	cmd, err := agentCmd.New(name, serviceName, cfg, a, readWriter)
	if err != nil {
		fmt.Fprintf(readWriter.ErrOut, "%v\n", err)
		return 1
	}

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(readWriter.ErrOut, "%v\n", err)
		return 1
	}

	return 0
}
