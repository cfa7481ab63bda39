package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace          = "sentry_otel_agent"
	manifestSubsystem  = "manifest"
	bootstrapSubsystem = "bootstrap"
	pipelineSubsystem  = "pipeline"

	manifestResourcesTotalName = "resources_total"
	manifestListFailuresName   = "list_failures_total"
	sdkPackagesTotalName       = "sdk_packages_total"
	bootstrapTotalName         = "total"
	pipelineBuildDurationName  = "build_duration_seconds"

	// ResultOK and ResultFailed label manifest reads.
	ResultOK     = "ok"
	ResultFailed = "failed"

	// Bootstrap outcomes.
	BootstrapSkipped     = "skipped"
	BootstrapInitialized = "initialized"
	BootstrapFailed      = "failed"
)

var (
	ManifestResourcesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: manifestSubsystem,
			Name:      manifestResourcesTotalName,
			Help:      "The number of manifest resources read, by result.",
		},
		[]string{"result"},
	)

	ManifestListFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: manifestSubsystem,
			Name:      manifestListFailuresName,
			Help:      "The number of times the manifest resources could not be listed at all.",
		},
	)

	SDKPackagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: manifestSubsystem,
			Name:      sdkPackagesTotalName,
			Help:      "The number of SDK packages added to the reported SDK version.",
		},
	)

	BootstrapTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: bootstrapSubsystem,
			Name:      bootstrapTotalName,
			Help:      "The number of Sentry bootstrap attempts, by outcome.",
		},
		[]string{"result"},
	)

	PipelineBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: pipelineSubsystem,
			Name:      pipelineBuildDurationName,
			Help:      "A histogram of the time spent building the tracing pipeline.",
			Buckets: []float64{
				0.001, /* 1ms */
				0.005, /* 5ms */
				0.025, /* 25ms */
				0.1,   /* 100ms */
				0.5,   /* 500ms */
				1.0,   /* 1s */
				5.0,   /* 5s */
			},
		},
	)
)
