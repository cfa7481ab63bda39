package sentryclient

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/magiconair/properties"
)

// PropertiesFileEnv names the properties file used as external configuration.
const PropertiesFileEnv = "SENTRY_PROPERTIES_FILE"

// externalSource looks options up in the environment first and in the
// properties file second.
type externalSource struct {
	lookupEnv func(string) (string, bool)
	props     *properties.Properties
}

func (s *externalSource) get(key string) (string, bool) {
	envKey := "SENTRY_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	if v, ok := s.lookupEnv(envKey); ok && v != "" {
		return v, true
	}

	if s.props != nil {
		if v, ok := s.props.Get(key); ok && v != "" {
			return v, true
		}
	}

	return "", false
}

func loadProperties(lookupEnv func(string) (string, bool)) (*properties.Properties, error) {
	path, ok := lookupEnv(PropertiesFileEnv)
	if !ok || path == "" {
		return nil, nil
	}

	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	return props, nil
}

// applyExternalConfiguration overwrites opts with every option found
// externally. Options that are missing externally keep their value. A
// properties file that cannot be read does not stop the environment from
// being applied.
func applyExternalConfiguration(opts *sentry.ClientOptions, lookupEnv func(string) (string, bool)) error {
	props, loadErr := loadProperties(lookupEnv)
	src := &externalSource{lookupEnv: lookupEnv, props: props}

	errs := []error{loadErr}

	for key, dst := range map[string]*string{
		"dsn":         &opts.Dsn,
		"environment": &opts.Environment,
		"release":     &opts.Release,
		"dist":        &opts.Dist,
		"server-name": &opts.ServerName,
	} {
		if v, ok := src.get(key); ok {
			*dst = v
		}
	}

	for key, dst := range map[string]*bool{
		"debug":          &opts.Debug,
		"enable-tracing": &opts.EnableTracing,
	} {
		if v, ok := src.get(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			*dst = b
		}
	}

	for key, dst := range map[string]*float64{
		"sample-rate":        &opts.SampleRate,
		"traces-sample-rate": &opts.TracesSampleRate,
	} {
		if v, ok := src.get(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			*dst = f
		}
	}

	return errors.Join(errs...)
}
