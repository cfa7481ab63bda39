//go:build boringcrypto

package boring

import (
	"crypto/boring"

	"gitlab.com/gitlab-org/labkit/log"
)

// CheckBoring logs whether the exporters and the Sentry transport use FIPS
// crypto. With the FIPS Go compiler (https://github.com/golang-fips/go) that
// needs:
//
// 1. FIPS enabled in the kernel (`/proc/sys/crypto/fips_enabled` is 1).
// 2. A system OpenSSL that can be loaded at runtime.
func CheckBoring() {
	if boring.Enabled() {
		log.Info("FIPS mode is enabled. Using an external SSL library.")
		return
	}
	log.Info("sentry-otel-agent was compiled with FIPS mode, but an external SSL library was not enabled.")
}
