package autoconfigure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	grpccorrelation "gitlab.com/gitlab-org/labkit/correlation/grpc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
)

const (
	defaultExporter    = "otlp"
	defaultSampler     = "parentbased_always_on"
	unknownServiceName = "unknown_service"
)

var (
	ErrUnknownExporter = errors.New("unknown traces exporter")
	ErrUnknownSampler  = errors.New("unknown traces sampler")
)

func otlpEndpoint(props Properties) string {
	return props.StringDefault(OTLPTracesEndpointProperty, props.String(OTLPEndpointProperty))
}

// newSpanExporters creates one exporter per name in otel.traces.exporter.
// "none" disables exporting.
func newSpanExporters(ctx context.Context, props Properties, console io.Writer, clientName string) ([]sdktrace.SpanExporter, error) {
	names := props.List(TracesExporterProperty)
	if len(names) == 0 {
		names = []string{defaultExporter}
	}

	if slices.Contains(names, noneValue) {
		return nil, nil
	}

	var exporters []sdktrace.SpanExporter
	for _, name := range names {
		exporter, err := newSpanExporter(ctx, name, props, console, clientName)
		if err != nil {
			for _, created := range exporters {
				_ = created.Shutdown(ctx)
			}
			return nil, err
		}
		exporters = append(exporters, exporter)
	}

	return exporters, nil
}

func newSpanExporter(ctx context.Context, name string, props Properties, console io.Writer, clientName string) (sdktrace.SpanExporter, error) {
	endpoint := otlpEndpoint(props)

	switch name {
	case "otlp", "otlp_http":
		var opts []otlptracehttp.Option
		if endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
		}
		return otlptracehttp.New(ctx, opts...)
	case "otlp_grpc":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithDialOption(grpcDialOptions(clientName)...)}
		if endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpointURL(endpoint))
		}
		return otlptracegrpc.New(ctx, opts...)
	case "console", "logging":
		return stdouttrace.New(stdouttrace.WithWriter(console))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, name)
	}
}

func grpcDialOptions(clientName string) []grpc.DialOption {
	if clientName == "" {
		clientName = unknownServiceName
	}

	return []grpc.DialOption{
		grpc.WithChainUnaryInterceptor(
			grpc_prometheus.UnaryClientInterceptor,
			grpccorrelation.UnaryClientCorrelationInterceptor(
				grpccorrelation.WithClientName(clientName),
			),
		),
	}
}

func newSampler(props Properties) (sdktrace.Sampler, error) {
	ratio := 1.0
	if arg := props.String(TracesSamplerArgProperty); arg != "" {
		parsed, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", TracesSamplerArgProperty, err)
		}
		ratio = parsed
	}

	switch name := props.StringDefault(TracesSamplerProperty, defaultSampler); name {
	case "always_on":
		return sdktrace.AlwaysSample(), nil
	case "always_off":
		return sdktrace.NeverSample(), nil
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(ratio), nil
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample()), nil
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSampler, name)
	}
}

// newResource describes the process. The service name is taken from
// otel.service.name, then from otel.resource.attributes, then defaultServiceName.
func newResource(ctx context.Context, props Properties, defaultServiceName string) (*resource.Resource, error) {
	serviceName := defaultServiceName

	var attrs []attribute.KeyValue
	for k, v := range props.Map(ResourceAttributesProperty) {
		if k == string(semconv.ServiceNameKey) {
			serviceName = v
			continue
		}
		attrs = append(attrs, attribute.String(k, v))
	}

	serviceName = props.StringDefault(ServiceNameProperty, serviceName)
	if serviceName == "" {
		serviceName = unknownServiceName
	}
	attrs = append(attrs, semconv.ServiceName(serviceName))

	return resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
}
