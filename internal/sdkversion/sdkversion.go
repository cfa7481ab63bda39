// Package sdkversion resolves the SDK identity reported to Sentry from the
// packaging manifests linked into the process.
//
// Packaging splits version metadata across several manifests, so every
// manifest is folded in: the last manifest naming the SDK wins the primary
// name and version, and every manifest adds its own packages.
package sdkversion

import (
	"iter"
	"slices"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/manifest"
	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/metrics"
)

// Package identifiers reported for the units found in manifests.
const (
	SelfPackage        = "go:" + manifest.ModulePath
	OtelSDKPackage     = "go:go.opentelemetry.io/otel/sdk"
	OtelContribPackage = "go:go.opentelemetry.io/contrib"
)

// Package is one component embedded in the SDK.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Descriptor is the SDK identity: a name and version plus the packages it is
// made of, in the order they were discovered.
type Descriptor struct {
	Name     string    `json:"name"`
	Version  string    `json:"version"`
	Packages []Package `json:"packages,omitempty"`
}

// AddPackage appends a package. Packages are never de-duplicated here: two
// manifests claiming the same package both end up in the descriptor.
func (d *Descriptor) AddPackage(name, version string) {
	d.Packages = append(d.Packages, Package{Name: name, Version: version})
}

func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}

	clone := *d
	clone.Packages = slices.Clone(d.Packages)
	return &clone
}

// Resolve folds the manifests of results into base.
//
// Results carrying an error are skipped, as are manifests that do not name
// both the SDK and its version. If no manifest contributes, base itself is
// returned, which may be nil. Otherwise a new descriptor is returned; base is
// never modified.
func Resolve(base *Descriptor, results iter.Seq[manifest.Result]) *Descriptor {
	var resolved *Descriptor

	for result := range results {
		if result.Err != nil {
			continue
		}

		attrs := result.Attributes
		name, hasName := attrs.Value(manifest.SDKNameKey)
		version, hasVersion := attrs.Value(manifest.VersionKey)
		if !hasName || !hasVersion {
			continue
		}

		if resolved == nil {
			resolved = base.Clone()
			if resolved == nil {
				resolved = &Descriptor{}
			}
		}

		before := len(resolved.Packages)

		resolved.Name = name
		resolved.Version = version
		resolved.AddPackage(SelfPackage, version)

		if otelVersion, ok := attrs.Value(manifest.OtelVersionKey); ok {
			resolved.AddPackage(OtelSDKPackage, otelVersion)
		}

		if contribVersion, ok := attrs.Value(manifest.OtelContribVersionKey); ok {
			resolved.AddPackage(OtelContribPackage, contribVersion)
		}

		metrics.SDKPackagesTotal.Add(float64(len(resolved.Packages) - before))
	}

	if resolved == nil {
		return base
	}

	return resolved
}
