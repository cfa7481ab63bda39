package testhelper

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/otiai10/copy"
	"github.com/stretchr/testify/require"
)

// Manifest of the agent in testdata/testroot.
const (
	AgentSDKName         = "sentry.go.opentelemetry.agent"
	AgentVersion         = "7.4.0"
	AgentOtelVersion     = "1.43.0"
	AgentContribVersion  = "1.39.0"
	TestRootServiceName  = "checkout"
	TestRootManifestsDir = "lib"
)

func TempEnv(t *testing.T, env map[string]string) {
	for key, value := range env {
		t.Setenv(key, value)
	}
}

// PrepareTestRootDir copies testdata/testroot, a config directory with a
// config.yml and a lib directory of manifests, to a temporary directory and
// changes into it.
func PrepareTestRootDir(t *testing.T) string {
	t.Helper()

	testRoot := t.TempDir()

	require.NoError(t, copyTestData(testRoot))

	oldWd, err := os.Getwd()
	require.NoError(t, err)

	t.Cleanup(func() { os.Chdir(oldWd) })

	require.NoError(t, os.Chdir(testRoot))

	return testRoot
}

// WriteManifest writes content as dir/<name>/META-INF/MANIFEST.MF.
func WriteManifest(t *testing.T, dir, name, content string) string {
	t.Helper()

	metaInf := filepath.Join(dir, name, "META-INF")
	require.NoError(t, os.MkdirAll(metaInf, 0o755))

	manifestPath := filepath.Join(metaInf, "MANIFEST.MF")
	require.NoError(t, os.WriteFile(manifestPath, []byte(content), 0o644))

	return manifestPath
}

func copyTestData(testRoot string) error {
	testDataDir, err := getTestDataDir()
	if err != nil {
		return err
	}

	testdata := path.Join(testDataDir, "testroot")

	return copy.Copy(testdata, testRoot)
}

func getTestDataDir() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("Could not get caller info")
	}

	return path.Join(path.Dir(currentFile), "testdata"), nil
}
