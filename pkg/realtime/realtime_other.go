//go:build !linux

package realtime

// Setup is a no-op where realtime scheduling is unavailable.
func Setup(cfg Config) error { return nil }

// Supported reports whether this platform can honor Setup.
func Supported() bool { return false }
