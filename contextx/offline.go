// Package contextx provides context helpers for per-call cache behavior
// overrides.
package contextx

import "context"

// WithOffline returns a derived context that forces cache-only resolution
// for every load performed with it, regardless of what the connectivity
// monitor reports. Useful for "work offline" application modes and for
// keeping UI paths off the network.
func WithOffline(ctx context.Context) context.Context {
	return context.WithValue(ctx, offlineKey, true)
}

// OfflineFromContext reports whether ctx carries the offline override.
func OfflineFromContext(ctx context.Context) bool {
	off, _ := ctx.Value(offlineKey).(bool)
	return off
}
