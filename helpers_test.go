package filelock

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/retrohook/filelock/internal/ticks"
)

func nowInstant() ticks.Instant {
	return ticks.Now()
}

func ticksFarFuture() ticks.Instant {
	return ticks.FarFuture
}

func discardLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}
