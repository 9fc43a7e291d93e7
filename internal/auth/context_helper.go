package auth

import "context"

type contextKey string

const (
	UpstreamHostKey contextKey = "upstreamHost"
)

// WithUpstreamHost injects the verified upstream host into the request context
func WithUpstreamHost(ctx context.Context, host string) context.Context {
	return context.WithValue(ctx, UpstreamHostKey, host) //to avoid collisions - use custom key type
}

// GetUpstreamHost retrieves the verified upstream host from the request context
func GetUpstreamHost(ctx context.Context) (string, bool) {
	host, ok := ctx.Value(UpstreamHostKey).(string)
	return host, ok
}
