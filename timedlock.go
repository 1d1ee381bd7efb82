package filelock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/retrohook/filelock/internal/ticks"
)

// TimedLock extends BasicLock with a bounded-wait acquisition that composes
// two cooperative strategies — wait-till-release and retry-before-release —
// under a single overall deadline, plus a cached-release-date optimization
// that makes disposal safe to call even if another handle has since
// re-acquired the same path.
type TimedLock struct {
	*BasicLock

	// cachedRelease holds the ticks.Instant (stored as int64) this handle
	// last successfully wrote, or ticks.FarPast if it never has. It is
	// written by BasicLock's refresh goroutine and read by Dispose from
	// whatever goroutine calls it, so — unlike the rest of a handle's state,
	// which spec.md §5 says callers serialize without needing a mutex — this
	// one field needs to be atomic.
	cachedRelease atomic.Int64
}

// NewTimed binds a TimedLock to the lock file derived from resourcePath.
func NewTimed(resourcePath string, opts ...Option) *TimedLock {
	t := &TimedLock{BasicLock: New(resourcePath, opts...)}
	t.cachedRelease.Store(int64(ticks.FarPast))
	// Every write this handle performs — direct acquire, AddTime, or the
	// refresh loop — goes through writeRelease, so rebinding it here is
	// sufficient to keep the cache in sync with every write path BasicLock
	// exposes, without needing to re-implement TryAcquireUntil/AddTime.
	t.BasicLock.writeRelease = t.writeReleaseCached
	return t
}

func (t *TimedLock) writeReleaseCached(instant ticks.Instant) bool {
	ok := t.record.TrySetRelease(instant)
	if ok {
		t.cachedRelease.Store(int64(instant))
	}
	return ok
}

// TryAcquireOrTimeout attempts to acquire the lock within timeout, using
// timeout itself as the retry interval (i.e. no early polling before the
// conflicting lock's observed release instant — see wait-till-release in
// SPEC_FULL.md §4.3).
func (t *TimedLock) TryAcquireOrTimeout(duration, timeout time.Duration) (bool, error) {
	return t.TryAcquireOrTimeoutRetry(duration, timeout, timeout)
}

// TryAcquireOrTimeoutRetry attempts to acquire the lock within timeout,
// polling every retry interval before the conflicting lock's observed
// release instant, then every MinGranularity after.
//
// Returns ErrInvalidArgument if timeout or retry is below MinGranularity, or
// if retry exceeds timeout.
func (t *TimedLock) TryAcquireOrTimeoutRetry(duration, timeout, retry time.Duration) (bool, error) {
	if timeout < MinGranularity {
		return false, invalidArgumentf("timeout %s is below MinGranularity (%s)", timeout, MinGranularity)
	}
	if retry < MinGranularity {
		return false, invalidArgumentf("retry %s is below MinGranularity (%s)", retry, MinGranularity)
	}
	if retry > timeout {
		return false, invalidArgumentf("retry %s exceeds timeout %s", retry, timeout)
	}

	// Fast path: nothing to wait for.
	if _, err := os.Stat(t.lockPath); err != nil && os.IsNotExist(err) {
		return t.TryAcquireFor(duration, false), nil
	}

	now := ticks.Now()
	deadline := now.Add(timeout)
	release := t.record.GetRelease()

	if release.After(deadline) {
		// The conflicting lock outlives our deadline; fail without waiting.
		return false, nil
	}

	return t.raceAcquire(duration, release, deadline, retry)
}

type acquireOutcome struct {
	ok  bool
	err error
}

// raceAcquire runs wait-till-release and retry-before-release concurrently
// under ctx's deadline, returning as soon as either succeeds or fails with
// an error, cancelling the other. If neither succeeds before ctx expires,
// it returns false.
func (t *TimedLock) raceAcquire(duration time.Duration, release, deadline ticks.Instant, retry time.Duration) (bool, error) {
	ctx, cancel := context.WithDeadline(context.Background(), deadline.Time())
	defer cancel()

	outcomes := make(chan acquireOutcome, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		outcomes <- t.runGuarded(func() acquireOutcome { return t.waitTillRelease(ctx, duration, release) })
	}()
	go func() {
		defer wg.Done()
		outcomes <- t.runGuarded(func() acquireOutcome { return t.retryBeforeRelease(ctx, duration, release, retry) })
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for outcome := range outcomes {
		if outcome.err != nil {
			cancel()
			return false, outcome.err
		}
		if outcome.ok {
			cancel()
			return true, nil
		}
	}
	return false, nil
}

// runGuarded recovers a panic from fn and reports it as ErrInternal instead
// of letting it crash the process — spec.md §7's "internal invariant
// violation" case. raceAcquire reads the spawned goroutines' outcomes in
// arrival order until one succeeds or reports an error, so such an error is
// returned when it arrives first; an outcome arriving after a success is not
// read.
func (t *TimedLock) runGuarded(fn func() acquireOutcome) (outcome acquireOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = acquireOutcome{err: errors.Wrapf(ErrInternal, "recovered panic in acquisition task: %v", r)}
		}
	}()
	return fn()
}

// waitTillRelease sleeps until the observed release instant (never
// negative, rounded up to the millisecond per spec.md §5), then polls every
// MinGranularity until ctx's deadline.
func (t *TimedLock) waitTillRelease(ctx context.Context, duration time.Duration, release ticks.Instant) acquireOutcome {
	delay := ceilMillis(release.Sub(ticks.Now()))

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return acquireOutcome{}
	case <-t.cancel:
		return acquireOutcome{}
	}

	return t.pollUntil(ctx, duration, MinGranularity)
}

// retryBeforeRelease polls every retry interval until the observed release
// instant passes, then switches to polling every MinGranularity until ctx's
// deadline. It is the strategy that catches a holder releasing earlier than
// it claimed.
func (t *TimedLock) retryBeforeRelease(ctx context.Context, duration time.Duration, release ticks.Instant, retry time.Duration) acquireOutcome {
	for ticks.Now().Sub(release) < 0 {
		if t.TryAcquireFor(duration, false) {
			return acquireOutcome{ok: true}
		}

		select {
		case <-time.After(retry):
		case <-ctx.Done():
			return acquireOutcome{}
		case <-t.cancel:
			return acquireOutcome{}
		}
	}

	return t.pollUntil(ctx, duration, MinGranularity)
}

// pollUntil repeatedly attempts acquisition every interval until it
// succeeds or ctx's deadline (or the handle's cancellation signal) fires.
func (t *TimedLock) pollUntil(ctx context.Context, duration time.Duration, interval time.Duration) acquireOutcome {
	for {
		if t.TryAcquireFor(duration, false) {
			return acquireOutcome{ok: true}
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return acquireOutcome{}
		case <-t.cancel:
			return acquireOutcome{}
		}
	}
}

func ceilMillis(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if d%time.Millisecond == 0 {
		return d
	}
	return (d/time.Millisecond + 1) * time.Millisecond
}

// Dispose fires the handle's cancellation signal, then deletes the lock
// file only if all of the following hold: this handle has successfully
// written a release instant before (cachedRelease != ticks.FarPast), the
// lock file still exists, and its on-disk release instant still equals what
// this handle cached. This prevents a handle from deleting a lock file that
// another handle has since re-acquired (spec.md §4.3, §8 P4).
func (t *TimedLock) Dispose() {
	t.closeOnce.Do(func() { close(t.cancel) })
	t.refreshWG.Wait()

	cached := ticks.Instant(t.cachedRelease.Load())
	if cached == ticks.FarPast {
		return
	}

	if _, err := os.Stat(t.lockPath); err != nil {
		return
	}

	if onDisk := t.record.GetRelease(); onDisk == cached {
		if err := os.Remove(t.lockPath); err != nil {
			t.logger.Debug().Err(err).Str("lock_path", t.lockPath).Msg("dispose: best-effort lock file removal failed")
		}
	}
}
