package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"gitlab.com/gitlab-org/labkit/log"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/config"
)

func logFmt(inFmt string) string {
	// Hide the "combined" format, since that makes no sense in the agent.
	if inFmt == "" || inFmt == "combined" {
		return "text"
	}

	return inFmt
}

func logFile(inFile string) string {
	if inFile == "" {
		return "stderr"
	}

	return inFile
}

func buildOpts(cfg *config.Config) []log.LoggerOption {
	opts := []log.LoggerOption{
		log.WithFormatter(logFmt(cfg.LogFormat)),
		log.WithOutputName(logFile(cfg.LogFile)),
		log.WithTimezone(time.UTC),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, log.WithLogLevel(cfg.LogLevel))
	}

	return opts
}

// Configure configures the logging singleton. An empty LogFile logs to
// standard error, which is also used as a fallback when LogFile could not be
// opened for writing.
func Configure(cfg *config.Config) io.Closer {
	closer, err := log.Initialize(buildOpts(cfg)...)
	if err == nil {
		return closer
	}

	progName, _ := os.Executable()
	fmt.Fprintf(os.Stderr, "%s: failed to configure log file %q, logging to stderr: %v\n", progName, cfg.LogFile, err)

	cfg.LogFile = "stderr"
	closer, err = log.Initialize(buildOpts(cfg)...)
	if err != nil {
		return io.NopCloser(nil)
	}

	return closer
}
