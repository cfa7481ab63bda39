// Package sentryclient initializes the Sentry client on behalf of the agent
// and reports the resolved SDK identity with every event.
package sentryclient

import (
	"fmt"
	"os"
	"slices"

	"github.com/getsentry/sentry-go"
	"gitlab.com/gitlab-org/labkit/log"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/sdkversion"
)

const (
	// DefaultSDKName is the name the Sentry Go SDK reports for itself.
	DefaultSDKName = "sentry.go"

	InstrumenterSentry = "sentry"
	InstrumenterOtel   = "otel"

	// otelIntegration is reported in the SDK integrations of events when
	// spans come from OpenTelemetry.
	otelIntegration = "OpenTelemetry"
)

// Options configure the client on Init.
type Options struct {
	sentry.ClientOptions

	// EnableExternalConfiguration loads options from SENTRY_* environment
	// variables and the properties file named by SENTRY_PROPERTIES_FILE.
	EnableExternalConfiguration bool

	// Instrumenter tells which integration produces spans, either
	// InstrumenterSentry or InstrumenterOtel.
	Instrumenter string

	// SDK is reported as the SDK of every event. Init pre-populates it with
	// the currently configured SDK.
	SDK *sdkversion.Descriptor
}

// Client is the part of the Sentry SDK the agent drives.
type Client interface {
	Init(configure func(*Options)) error
	CurrentSDK() *sdkversion.Descriptor
}

// DefaultSDK describes the Sentry Go SDK without any agent packages.
func DefaultSDK() *sdkversion.Descriptor {
	return &sdkversion.Descriptor{Name: DefaultSDKName, Version: sentry.SDKVersion}
}

// HubClient binds the client it creates to a Sentry hub.
type HubClient struct {
	hub          *sentry.Hub
	lookupEnv    func(string) (string, bool)
	sdk          *sdkversion.Descriptor
	instrumenter string
}

// NewHubClient returns a client for hub, or for the current hub when hub is
// nil. lookupEnv defaults to os.LookupEnv.
func NewHubClient(hub *sentry.Hub, lookupEnv func(string) (string, bool)) *HubClient {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	return &HubClient{hub: hub, lookupEnv: lookupEnv}
}

func (c *HubClient) CurrentSDK() *sdkversion.Descriptor {
	if c.sdk != nil {
		return c.sdk
	}
	return DefaultSDK()
}

// Instrumenter returns the instrumenter the client was initialized with.
func (c *HubClient) Instrumenter() string {
	if c.instrumenter == "" {
		return InstrumenterSentry
	}
	return c.instrumenter
}

func (c *HubClient) Hub() *sentry.Hub {
	return c.hub
}

// Init creates a Sentry client configured by configure and binds it to the hub.
func (c *HubClient) Init(configure func(*Options)) error {
	opts := &Options{
		Instrumenter: c.Instrumenter(),
		SDK:          c.CurrentSDK(),
	}

	if configure != nil {
		configure(opts)
	}

	if opts.EnableExternalConfiguration {
		if err := applyExternalConfiguration(&opts.ClientOptions, c.lookupEnv); err != nil {
			log.WithError(err).Warn("sentry: external configuration could not be fully applied")
		}
	}

	client, err := sentry.NewClient(opts.ClientOptions)
	if err != nil {
		return fmt.Errorf("sentry: create client: %w", err)
	}

	client.AddEventProcessor(sdkEventProcessor(opts.SDK, opts.Instrumenter))
	c.hub.BindClient(client)

	c.sdk = opts.SDK
	c.instrumenter = opts.Instrumenter

	log.WithFields(log.Fields{
		"sdk_name":     sdkName(opts.SDK),
		"instrumenter": opts.Instrumenter,
		"environment":  client.Options().Environment,
	}).Info("sentry: client initialized")

	return nil
}

func sdkName(sdk *sdkversion.Descriptor) string {
	if sdk == nil {
		return ""
	}
	return sdk.Name
}

// sdkEventProcessor reports sdk as the SDK of each event. The packages of sdk
// are appended after the ones the Sentry SDK reports for itself.
func sdkEventProcessor(sdk *sdkversion.Descriptor, instrumenter string) sentry.EventProcessor {
	return func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
		if event == nil {
			return nil
		}

		if sdk != nil {
			event.Sdk.Name = sdk.Name
			event.Sdk.Version = sdk.Version
			for _, p := range sdk.Packages {
				event.Sdk.Packages = append(event.Sdk.Packages, sentry.SdkPackage{Name: p.Name, Version: p.Version})
			}
		}

		if instrumenter == InstrumenterOtel && !slices.Contains(event.Sdk.Integrations, otelIntegration) {
			event.Sdk.Integrations = append(event.Sdk.Integrations, otelIntegration)
		}

		return event
	}
}
