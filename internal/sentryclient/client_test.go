package sentryclient

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/require"

	"gitlab.com/gitlab-org/sentry-opentelemetry-agent/internal/sdkversion"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func newTestClient(env map[string]string) *HubClient {
	return NewHubClient(sentry.NewHub(nil, sentry.NewScope()), envLookup(env))
}

func TestCurrentSDKBeforeInit(t *testing.T) {
	client := newTestClient(nil)

	require.Equal(t, &sdkversion.Descriptor{Name: DefaultSDKName, Version: sentry.SDKVersion}, client.CurrentSDK())
	require.Equal(t, InstrumenterSentry, client.Instrumenter())
	require.Nil(t, client.Hub().Client())
}

func TestInitPassesCurrentSDK(t *testing.T) {
	client := newTestClient(nil)

	var seen *sdkversion.Descriptor
	err := client.Init(func(opts *Options) {
		seen = opts.SDK
	})
	require.NoError(t, err)

	require.Equal(t, DefaultSDK(), seen)
	require.NotNil(t, client.Hub().Client())
}

func TestInitReportsSDK(t *testing.T) {
	client := newTestClient(nil)
	sdk := &sdkversion.Descriptor{
		Name:     "sentry.go.opentelemetry",
		Version:  "1.2.0",
		Packages: []sdkversion.Package{{Name: sdkversion.SelfPackage, Version: "1.2.0"}},
	}

	var captured *sentry.Event
	err := client.Init(func(opts *Options) {
		opts.Instrumenter = InstrumenterOtel
		opts.SDK = sdk
		opts.BeforeSend = func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			captured = event
			return nil
		}
	})
	require.NoError(t, err)
	require.Equal(t, InstrumenterOtel, client.Instrumenter())
	require.Same(t, sdk, client.CurrentSDK())

	client.Hub().CaptureMessage("hello")

	require.NotNil(t, captured)
	require.Equal(t, "sentry.go.opentelemetry", captured.Sdk.Name)
	require.Equal(t, "1.2.0", captured.Sdk.Version)
	require.Contains(t, captured.Sdk.Packages, sentry.SdkPackage{Name: sdkversion.SelfPackage, Version: "1.2.0"})
	require.Contains(t, captured.Sdk.Integrations, otelIntegration)
}

func TestInitInvalidDSN(t *testing.T) {
	client := newTestClient(nil)

	err := client.Init(func(opts *Options) {
		opts.Dsn = "not a dsn"
	})

	require.Error(t, err)
	require.Nil(t, client.Hub().Client())
	require.Equal(t, DefaultSDK(), client.CurrentSDK())
}

func TestInitExternalConfiguration(t *testing.T) {
	propsFile := filepath.Join(t.TempDir(), "sentry.properties")
	require.NoError(t, os.WriteFile(propsFile, []byte("environment=staging\nrelease=1.0.0\n"), 0o600))

	client := newTestClient(map[string]string{PropertiesFileEnv: propsFile})

	err := client.Init(func(opts *Options) {
		opts.EnableExternalConfiguration = true
	})
	require.NoError(t, err)

	options := client.Hub().Client().Options()
	require.Equal(t, "staging", options.Environment)
	require.Equal(t, "1.0.0", options.Release)
}

func TestSDKEventProcessor(t *testing.T) {
	processor := sdkEventProcessor(nil, InstrumenterSentry)
	event := &sentry.Event{Sdk: sentry.SdkInfo{Name: "sentry.go", Version: "0.28.0"}}

	require.Equal(t, &sentry.Event{Sdk: sentry.SdkInfo{Name: "sentry.go", Version: "0.28.0"}}, processor(event, nil))
	require.Nil(t, processor(nil, nil))

	processor = sdkEventProcessor(nil, InstrumenterOtel)
	event = processor(processor(&sentry.Event{}, nil), nil)
	require.Equal(t, []string{otelIntegration}, event.Sdk.Integrations)
}
