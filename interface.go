package apifetch

import "context"

// Transport performs the remote calls described by descriptors.
// config is the opaque apiConfig of the enclosing provider, or the API default.
type Transport interface {
	Fetch(ctx context.Context, config any, d Descriptor) (any, error)
}

// ILogger is an interface for cache hit/miss ratio and issued fetches.
// For convenience of metrics collection.
type ILogger interface {
	LogCacheHitRatio(ctx context.Context, name string, hit bool)
	LogFetch(ctx context.Context, name, identity string, err error)
}

// TransportFunc adapts a plain function to Transport.
type TransportFunc func(ctx context.Context, config any, d Descriptor) (any, error)

// Fetch calls f.
func (f TransportFunc) Fetch(ctx context.Context, config any, d Descriptor) (any, error) {
	return f(ctx, config, d)
}
