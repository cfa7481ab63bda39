package config

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/testhelper"
)

const testRoot = "/opt/sentry-otel-agent"

func TestParseConfig(t *testing.T) {
	testCases := []struct {
		yaml        string
		logFile     string
		format      string
		searchPaths []string
		otel        map[string]string
	}{
		{},
		{
			yaml:    "log_file: agent.log",
			logFile: filepath.Join(testRoot, "agent.log"),
		},
		{
			yaml:    "log_file: /var/log/agent.log",
			logFile: "/var/log/agent.log",
		},
		{
			yaml:   "log_format: json",
			format: "json",
		},
		{
			yaml:        "manifest:\n  search_paths: [lib, /usr/share/java]",
			searchPaths: []string{filepath.Join(testRoot, "lib"), "/usr/share/java"},
		},
		{
			yaml: "otel:\n  otel.traces.exporter: console\n  otel.propagators: b3,sentry",
			otel: map[string]string{"otel.traces.exporter": "console", "otel.propagators": "b3,sentry"},
		},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("yaml input: %q", tc.yaml), func(t *testing.T) {
			cfg := Config{RootDir: testRoot}

			err := parseConfig([]byte(tc.yaml), &cfg)
			require.NoError(t, err)

			assert.Equal(t, tc.logFile, cfg.LogFile)
			assert.Equal(t, tc.format, cfg.LogFormat)
			assert.Equal(t, tc.searchPaths, cfg.Manifest.SearchPaths)
			assert.Equal(t, tc.otel, cfg.Otel)
		})
	}
}

func TestParseConfigInvalidYAML(t *testing.T) {
	cfg := Config{RootDir: testRoot}

	require.Error(t, parseConfig([]byte("manifest: [unterminated"), &cfg))
}

func TestNewFromDir(t *testing.T) {
	dir := testhelper.PrepareTestRootDir(t)

	cfg, err := NewFromDir(dir)
	require.NoError(t, err)

	require.Equal(t, dir, cfg.RootDir)
	require.Equal(t, filepath.Join(dir, "sentry-otel-agent.log"), cfg.LogFile)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, testhelper.TestRootServiceName, cfg.ServiceName)
	require.Equal(t, []string{filepath.Join(dir, testhelper.TestRootManifestsDir)}, cfg.Manifest.SearchPaths)
	require.Equal(t, map[string]string{"otel.traces.exporter": "none"}, cfg.Otel)
	require.NoError(t, cfg.IsSane())
}

func TestNewFromDirMissing(t *testing.T) {
	_, err := NewFromDir(t.TempDir())

	require.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{RootDir: testRoot}
	cfg.ApplyDefaults()

	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, []string{testRoot}, cfg.Manifest.SearchPaths)
	require.NotNil(t, cfg.Otel)

	cfg = &Config{LogFormat: "json", Manifest: ManifestConfig{SearchPaths: []string{"/lib"}}}
	cfg.ApplyDefaults()

	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, []string{"/lib"}, cfg.Manifest.SearchPaths)
}

func TestOverrideFromEnvironment(t *testing.T) {
	env := map[string]string{
		"SENTRY_OTEL_LOG_FORMAT":   "json",
		"SENTRY_OTEL_LOG_LEVEL":    "",
		"SENTRY_OTEL_SERVICE_NAME": "billing",
	}
	lookupEnv := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := &Config{LogFormat: "text", LogLevel: "warn", LogFile: "/var/log/agent.log"}
	cfg.OverrideFromEnvironment(lookupEnv)

	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, "/var/log/agent.log", cfg.LogFile)
	require.Equal(t, "billing", cfg.ServiceName)
}

func TestOverrideFromProcessEnvironment(t *testing.T) {
	testhelper.TempEnv(t, map[string]string{"SENTRY_OTEL_LOG_FILE": "/tmp/agent.log"})

	cfg := &Config{}
	cfg.OverrideFromEnvironment(nil)

	require.Equal(t, "/tmp/agent.log", cfg.LogFile)
}

func TestIsSane(t *testing.T) {
	testCases := []struct {
		desc string
		cfg  Config
		err  string
	}{
		{desc: "empty config"},
		{desc: "valid", cfg: Config{LogFormat: "json", LogLevel: "debug", Manifest: ManifestConfig{Pattern: "**/*.MF"}}},
		{desc: "unknown format", cfg: Config{LogFormat: "xml"}, err: `log_format "xml"`},
		{desc: "unknown level", cfg: Config{LogLevel: "loud"}, err: "log_level"},
		{desc: "bad pattern", cfg: Config{Manifest: ManifestConfig{Pattern: "[unclosed"}}, err: "manifest pattern"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			err := tc.cfg.IsSane()
			if tc.err == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.err)
		})
	}
}
