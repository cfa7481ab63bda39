package autoconfigure

import (
	"strconv"
	"strings"
)

// Property names understood when building the pipeline.
const (
	PropagatorsProperty        = "otel.propagators"
	TracesExporterProperty     = "otel.traces.exporter"
	TracesSamplerProperty      = "otel.traces.sampler"
	TracesSamplerArgProperty   = "otel.traces.sampler.arg"
	ServiceNameProperty        = "otel.service.name"
	ResourceAttributesProperty = "otel.resource.attributes"
	OTLPEndpointProperty       = "otel.exporter.otlp.endpoint"
	OTLPTracesEndpointProperty = "otel.exporter.otlp.traces.endpoint"
)

// Properties is the resolved pipeline configuration, keyed by property name.
type Properties map[string]string

func (p Properties) String(key string) string {
	return strings.TrimSpace(p[key])
}

// StringDefault returns def when key is unset or blank.
func (p Properties) StringDefault(key, def string) string {
	if v := p.String(key); v != "" {
		return v
	}
	return def
}

// List splits a comma separated property, dropping blank entries.
func (p Properties) List(key string) []string {
	var list []string
	for _, item := range strings.Split(p[key], ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// Map parses a comma separated list of key=value pairs.
func (p Properties) Map(key string) map[string]string {
	m := map[string]string{}
	for _, item := range p.List(key) {
		k, v, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return m
}

func (p Properties) Bool(key string) bool {
	b, _ := strconv.ParseBool(p.String(key))
	return b
}

// propertyFromEnv maps OTEL_TRACES_EXPORTER to otel.traces.exporter.
func propertyFromEnv(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", "."))
}

func normalizeProperty(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
