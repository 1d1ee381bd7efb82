package filelock

import (
	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned by TryAcquireOrTimeout when timeout or
// retry violate the constraints in spec.md §4.3 (both >= MinGranularity,
// retry <= timeout). It is the only contention-unrelated error a caller of
// the timed-acquire API should expect.
var ErrInvalidArgument = errors.New("filelock: invalid argument")

// ErrInternal is returned when a spawned acquisition goroutine reports a
// result it should never have produced (spec.md §7, "internal invariant
// violation"). It should never be observed in practice; its existence lets
// TryAcquireOrTimeout surface a recovered panic instead of deadlocking or
// silently swallowing it.
var ErrInternal = errors.New("filelock: internal invariant violation")

func invalidArgumentf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
