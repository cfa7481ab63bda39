package manifest

import (
	"fmt"
	"iter"

	"gitlab.com/gitlab-org/labkit/log"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/metrics"
)

// Result is the outcome of reading one manifest resource. Exactly one of
// Attributes and Err is set.
type Result struct {
	Resource   string
	Attributes Attributes
	Err        error
}

// Scanner reads every manifest its Lister exposes.
type Scanner struct {
	Lister Lister
}

func NewScanner(lister Lister) *Scanner {
	return &Scanner{Lister: lister}
}

// Scan returns the manifests in the order the Lister yields them. Resources
// are listed when the sequence is iterated, so each iteration is independent.
//
// A resource that cannot be opened or parsed is reported as a Result with Err
// set and scanning moves on. When the resources cannot be listed at all the
// sequence is empty.
func (s *Scanner) Scan() iter.Seq[Result] {
	return func(yield func(Result) bool) {
		if s == nil || s.Lister == nil {
			return
		}

		resources, err := s.Lister.ListManifests()
		if err != nil {
			metrics.ManifestListFailures.Inc()
			log.WithError(err).Debug("manifest: unable to list manifest resources")
			return
		}

		for _, resource := range resources {
			result := read(resource)
			if result.Err != nil {
				metrics.ManifestResourcesTotal.WithLabelValues(metrics.ResultFailed).Inc()
				log.WithError(result.Err).WithFields(log.Fields{"resource": result.Resource}).Debug("manifest: skipping unreadable manifest")
			} else {
				metrics.ManifestResourcesTotal.WithLabelValues(metrics.ResultOK).Inc()
			}

			if !yield(result) {
				return
			}
		}
	}
}

func read(resource Resource) Result {
	result := Result{Resource: resource.Name()}

	rc, err := resource.Open()
	if err != nil {
		result.Err = fmt.Errorf("open %s: %w", result.Resource, err)
		return result
	}
	defer rc.Close()

	attrs, err := Parse(rc)
	if err != nil {
		result.Err = fmt.Errorf("parse %s: %w", result.Resource, err)
		return result
	}

	result.Attributes = attrs
	return result
}
