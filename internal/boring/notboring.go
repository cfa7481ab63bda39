//go:build !boringcrypto

package boring

// CheckBoring does nothing when not compiled with boringcrypto.
func CheckBoring() {}
