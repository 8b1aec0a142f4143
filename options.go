package audiograph

import (
	"pipelined.dev/audiograph/log"
)

// Option provides a way to set up the builder.
type Option func(*Builder)

// WithLogger sets logger to builder and the graph it builds.
func WithLogger(logger log.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}
