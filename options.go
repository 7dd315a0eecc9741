package apifetch

import "github.com/rs/zerolog"

// Option is a function for configuring API.
type Option func(*options)

type options struct {
	name        string
	logger      ILogger
	log         zerolog.Logger
	config      any
	concurrency int
}

// WithLogger sets a logger for cache hit ratio and fetch metrics.
// By default, the logger is nil.
func WithLogger(name string, logger ILogger) Option {
	return func(c *options) {
		c.name = name
		c.logger = logger
	}
}

// WithZerolog sets the structured logger used for diagnostics.
// By default, nothing is logged.
func WithZerolog(logger zerolog.Logger) Option {
	return func(c *options) {
		c.log = logger
	}
}

// WithConfig sets the transport config used by providers without an apiConfig prop.
func WithConfig(config any) Option {
	return func(c *options) {
		c.config = config
	}
}

// WithConcurrency limits the number of transport calls running at once within one batch.
// Zero or negative means no limit.
func WithConcurrency(n int) Option {
	return func(c *options) {
		c.concurrency = n
	}
}
