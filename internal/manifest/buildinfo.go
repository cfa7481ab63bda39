package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

const (
	// ModulePath is the path of the module that ships this agent.
	ModulePath = "gitlab.com/gitlab-org/sentry-opentelemetry-agent"
	// SDKName is the SDK name reported when the agent is found in the build info.
	SDKName = "sentry.go.opentelemetry"

	otelSDKModule           = "go.opentelemetry.io/otel/sdk"
	otelContribModulePrefix = "go.opentelemetry.io/contrib/"

	develVersion = "(devel)"
)

// ErrNoBuildInfo is returned when the binary was built without module support.
var ErrNoBuildInfo = errors.New("manifest: build info not available")

// BuildInfoLister turns the module information embedded in Go binaries into a
// manifest, so that the version of this agent and of the OpenTelemetry modules
// it is linked with can be resolved the same way as file manifests.
type BuildInfoLister struct {
	// ReadBuildInfo defaults to debug.ReadBuildInfo.
	ReadBuildInfo func() (*debug.BuildInfo, bool)
}

func (l *BuildInfoLister) ListManifests() ([]Resource, error) {
	read := l.ReadBuildInfo
	if read == nil {
		read = debug.ReadBuildInfo
	}

	info, ok := read()
	if !ok || info == nil {
		return nil, ErrNoBuildInfo
	}

	return []Resource{
		&BytesResource{
			ResourceName: "buildinfo:" + info.Main.Path,
			Data:         buildInfoManifest(info),
		},
	}, nil
}

func buildInfoManifest(info *debug.BuildInfo) []byte {
	var b bytes.Buffer

	b.WriteString("Manifest-Version: 1.0\n")

	if version := moduleVersion(info, func(p string) bool { return p == ModulePath }); version != "" {
		fmt.Fprintf(&b, "%s: %s\n", SDKNameKey, SDKName)
		fmt.Fprintf(&b, "%s: %s\n", VersionKey, version)
	}

	if version := moduleVersion(info, func(p string) bool { return p == otelSDKModule }); version != "" {
		fmt.Fprintf(&b, "%s: %s\n", OtelVersionKey, version)
	}

	if version := moduleVersion(info, func(p string) bool { return strings.HasPrefix(p, otelContribModulePrefix) }); version != "" {
		fmt.Fprintf(&b, "%s: %s\n", OtelContribVersionKey, version)
	}

	return b.Bytes()
}

// moduleVersion returns the version of the first module matching match, taking
// replacements into account. Development builds have no usable version.
func moduleVersion(info *debug.BuildInfo, match func(string) bool) string {
	if match(info.Main.Path) && info.Main.Version != develVersion {
		return info.Main.Version
	}

	for _, dep := range info.Deps {
		if dep == nil || !match(dep.Path) {
			continue
		}

		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version
		}
		return dep.Version
	}

	return ""
}
