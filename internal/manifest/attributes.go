// Package manifest discovers packaging manifests visible to the process and
// extracts their main attributes.
//
// A manifest is a flat list of "Name: value" headers. Manifests can come from
// files on disk (one per packaged unit, typically META-INF/MANIFEST.MF) or be
// synthesised from the Go build information linked into the binary.
package manifest

import "strings"

// Attribute names read by the SDK version resolution. All other attributes are
// carried along but ignored.
const (
	SDKNameKey            = "Sentry-Opentelemetry-SDK-Name"
	VersionKey            = "Sentry-Version-Name"
	OtelVersionKey        = "Sentry-Opentelemetry-Version-Name"
	OtelContribVersionKey = "Sentry-Opentelemetry-Contrib-Version-Name"
)

// Attributes holds the main section of a single manifest.
type Attributes map[string]string

// Value returns the value of the named attribute. Attribute names are matched
// case-insensitively, the same way manifest readers on other platforms do.
// A present attribute with an empty value is reported as present.
func (a Attributes) Value(name string) (string, bool) {
	if v, ok := a[name]; ok {
		return v, true
	}

	for k, v := range a {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}

	return "", false
}

// set stores value under name, replacing any attribute whose name differs
// only in case.
func (a Attributes) set(name, value string) {
	for k := range a {
		if strings.EqualFold(k, name) {
			delete(a, k)
		}
	}
	a[name] = value
}
