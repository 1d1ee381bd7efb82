package filelock

import "github.com/rs/zerolog"

// Option configures a BasicLock or TimedLock at construction time, the same
// shape the teacher uses for AcquireOptions/ReleaseOptions/FreezeOptions
// (nikolasavic/lokt, internal/lock).
type Option func(*config)

type config struct {
	logger zerolog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithLogger attaches a zerolog.Logger the handle uses to report otherwise
// swallowed best-effort failures (transient LockRecord I/O, refresh-loop
// write failures, disposal deletion failures) at debug/warn level. The
// default is zerolog.Nop(): silent, matching spec.md §7's rule that these
// conditions never propagate.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
