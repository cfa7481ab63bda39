// Package executable locates the agent installation the running binary
// belongs to.
package executable

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	BinDir = "bin"
	Agent  = "sentry-otel-agent"

	// RootDirEnv overrides the root directory derived from the binary path.
	RootDirEnv = "SENTRY_OTEL_AGENT_DIR"
)

// Executable is the running binary. RootDir holds config.yml and the
// manifests searched by default.
type Executable struct {
	Name    string
	RootDir string
}

// osExecutable is overridden in tests
var osExecutable = os.Executable

func New(name string) (*Executable, error) {
	path, err := osExecutable()
	if err != nil {
		return nil, err
	}

	rootDir, err := rootDirFromEnv()
	if err != nil {
		return nil, err
	}
	if rootDir == "" {
		rootDir = installDir(path)
	}

	return &Executable{Name: name, RootDir: rootDir}, nil
}

// installDir is the parent of the bin directory holding the binary, or the
// directory of the binary when it is installed elsewhere.
//
//	/opt/sentry-otel-agent/bin/sentry-otel-agent -> /opt/sentry-otel-agent
//	/usr/local/sentry/sentry-otel-agent          -> /usr/local/sentry
func installDir(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == BinDir {
		return filepath.Dir(dir)
	}
	return dir
}

func rootDirFromEnv() (string, error) {
	dir := os.Getenv(RootDirEnv)
	if dir == "" {
		return "", nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %s is not a directory", RootDirEnv, dir)
	}

	return dir, nil
}
