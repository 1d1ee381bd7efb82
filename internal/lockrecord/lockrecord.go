// Package lockrecord is the sole component that reads or writes the lock
// file's content: a single release instant, tolerating the filesystem
// contention unrelated processes introduce.
package lockrecord

import (
	"os"
	"strconv"
	"strings"

	natomic "github.com/natefinch/atomic"
	"github.com/rs/zerolog"

	"github.com/retrohook/filelock/internal/ticks"
)

// Record is bound to exactly one lock-file path for the lifetime of its
// owning handle.
type Record struct {
	path   string
	logger zerolog.Logger
}

// New binds a Record to path, logging through logger whenever a tolerated
// read or write failure is worth surfacing. It does not touch the
// filesystem.
func New(path string, logger zerolog.Logger) *Record {
	return &Record{path: path, logger: logger}
}

// Path returns the bound lock-file path.
func (r *Record) Path() string {
	return r.path
}

// GetRelease returns the current release instant, or ticks.FarFuture if no
// file exists or the read is unreliable (permission error, a reader racing
// a writer's temp-file rename, a corrupt or empty payload). The sentinel
// lets callers proceed straight to an overwrite on their next attempt rather
// than misinterpreting a torn read as a live lock.
func (r *Record) GetRelease() ticks.Instant {
	data, err := os.ReadFile(r.path) //nolint:gosec // path is derived by the caller from its own target path
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Debug().Err(err).Str("lock_path", r.path).Msg("get_release: tolerated read failure")
		}
		return ticks.FarFuture
	}

	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		r.logger.Debug().Err(err).Str("lock_path", r.path).Msg("get_release: tolerated corrupt payload")
		return ticks.FarFuture
	}

	return ticks.Instant(n)
}

// TrySetRelease writes instant as decimal ticks to the lock file, creating
// it if missing and overwriting it otherwise. It returns false on any I/O
// failure without propagating the error; callers treat false as "do not
// consider the lock acquired".
//
// The write goes through a temp-file-then-rename (via natefinch/atomic)
// rather than a bare truncating write, so a concurrent GetRelease can never
// observe a half-written payload from this Record — see SPEC_FULL.md's
// resolution of the torn-write-tolerance open question.
func (r *Record) TrySetRelease(instant ticks.Instant) bool {
	payload := strconv.FormatInt(int64(instant), 10)
	if err := natomic.WriteFile(r.path, strings.NewReader(payload)); err != nil {
		r.logger.Debug().Err(err).Str("lock_path", r.path).Msg("try_set_release: tolerated write failure")
		return false
	}
	return true
}
