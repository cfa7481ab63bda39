package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v3"
)

const (
	configFile       = "config.yml"
	defaultLogFormat = "text"
	defaultLogLevel  = "info"
)

var logFormats = []string{"text", "json", "color", "combined"}

type ManifestConfig struct {
	// SearchPaths are directories searched for packaging manifests. Relative
	// paths are resolved against RootDir.
	SearchPaths      []string `yaml:"search_paths"`
	Pattern          string   `yaml:"pattern"`
	DisableBuildInfo bool     `yaml:"disable_build_info"`
}

type Config struct {
	RootDir     string            `yaml:"-"`
	LogFile     string            `yaml:"log_file"`
	LogFormat   string            `yaml:"log_format"`
	LogLevel    string            `yaml:"log_level"`
	ServiceName string            `yaml:"service_name"`
	Manifest    ManifestConfig    `yaml:"manifest"`
	Otel        map[string]string `yaml:"otel"`
}

// NewFromDir returns a new config given a root directory. It looks for the config file name in the
// given directory and reads the config from it. It doesn't apply any defaults.
func NewFromDir(dir string) (*Config, error) {
	return newFromFile(filepath.Join(dir, configFile))
}

// newFromFile reads a new Config instance from the given file path. It doesn't apply any defaults.
func newFromFile(path string) (*Config, error) {
	cfg := &Config{RootDir: filepath.Dir(path)}

	configBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := parseConfig(configBytes, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseConfig(configBytes []byte, cfg *Config) error {
	if err := yaml.Unmarshal(configBytes, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", configFile, err)
	}

	cfg.LogFile = cfg.resolvePath(cfg.LogFile)
	for i, searchPath := range cfg.Manifest.SearchPaths {
		cfg.Manifest.SearchPaths[i] = cfg.resolvePath(searchPath)
	}

	return nil
}

func (cfg *Config) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || cfg.RootDir == "" {
		return p
	}
	return filepath.Join(cfg.RootDir, p)
}

// OverrideFromEnvironment applies the SENTRY_OTEL_* variables found by
// lookupEnv. Empty values are ignored.
func (cfg *Config) OverrideFromEnvironment(lookupEnv func(string) (string, bool)) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	overrides := map[string]*string{
		"SENTRY_OTEL_LOG_FILE":     &cfg.LogFile,
		"SENTRY_OTEL_LOG_FORMAT":   &cfg.LogFormat,
		"SENTRY_OTEL_LOG_LEVEL":    &cfg.LogLevel,
		"SENTRY_OTEL_SERVICE_NAME": &cfg.ServiceName,
	}

	for name, field := range overrides {
		if value, ok := lookupEnv(name); ok && value != "" {
			*field = value
		}
	}
}

// ApplyDefaults fills in everything left unset. Without search paths
// configured, manifests are searched for below RootDir.
func (cfg *Config) ApplyDefaults() {
	if cfg.LogFormat == "" {
		cfg.LogFormat = defaultLogFormat
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if len(cfg.Manifest.SearchPaths) == 0 && cfg.RootDir != "" {
		cfg.Manifest.SearchPaths = []string{cfg.RootDir}
	}
	if cfg.Otel == nil {
		cfg.Otel = map[string]string{}
	}
}

// IsSane checks if the given config fulfills the minimum requirements to be able to run.
// Any error returned by this function should be a startup error.
func (cfg *Config) IsSane() error {
	if cfg.LogFormat != "" && !slices.Contains(logFormats, cfg.LogFormat) {
		return fmt.Errorf("log_format %q is not one of %v", cfg.LogFormat, logFormats)
	}
	if cfg.LogLevel != "" {
		if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	if cfg.Manifest.Pattern != "" && !doublestar.ValidatePattern(cfg.Manifest.Pattern) {
		return errors.New("manifest pattern is not a valid glob")
	}
	return nil
}
