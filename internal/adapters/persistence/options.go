package persistence

import (
	"time"

	"github.com/okian/duelo/pkg/logger"
)

// Option applies a configuration option to the Gateway.
type Option func(*Gateway)

// WithDebounce sets the save coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.debounce = d
		}
	}
}

// WithLogger sets a custom logger for the gateway.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}
