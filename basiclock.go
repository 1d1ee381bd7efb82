package filelock

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/retrohook/filelock/internal/lockrecord"
	"github.com/retrohook/filelock/internal/ticks"
)

// BasicLock is a process-local handle bound to exactly one lock file,
// offering immediate (non-waiting) acquisition, release-date extension, an
// optional background refresh task, and guaranteed best-effort release on
// disposal. See TimedLock for bounded-wait acquisition.
//
// Two BasicLock handles bound to the same path, even within the same
// process, are independent participants that compete through the lock file
// exactly as they would across processes — there is no shared in-process
// state between them (spec.md §9).
type BasicLock struct {
	resourcePath string
	lockPath     string
	record       *lockrecord.Record
	logger       zerolog.Logger

	// writeRelease is the single choke point every successful write of a
	// release instant goes through. BasicLock wires it straight to
	// record.TrySetRelease; TimedLock rebinds it to a wrapper that also
	// updates its cached release field. This stands in for the source's
	// virtual-method override, without needing a common base type that both
	// would have to embed and type-assert through.
	writeRelease func(ticks.Instant) bool

	cancel    chan struct{}
	closeOnce sync.Once
	refreshWG sync.WaitGroup
}

// New binds a BasicLock to the lock file derived from resourcePath (see
// LockPath). Apart from one statfs of the lock directory (see
// checkRenameSafety), it does not touch the filesystem until an acquire is
// attempted.
func New(resourcePath string, opts ...Option) *BasicLock {
	cfg := newConfig(opts)
	lockPath := LockPath(resourcePath)
	logger := cfg.logger

	if onNetworkFS, fsName := checkRenameSafety(filepath.Dir(lockPath)); onNetworkFS {
		// Every subsequent log line from this handle carries the finding, not
		// just a one-time warning, so a swallowed write/read failure logged
		// later from AddTime or Dispose is traceable back to it.
		logger = logger.With().Bool("network_filesystem", true).Str("filesystem", fsName).Logger()
		logger.Warn().Str("lock_path", lockPath).
			Msg("lock directory is on a network filesystem; atomic-rename and single-writer assumptions may not hold there")
	}

	b := &BasicLock{
		resourcePath: resourcePath,
		lockPath:     lockPath,
		record:       lockrecord.New(lockPath, logger),
		logger:       logger,
		cancel:       make(chan struct{}),
	}
	b.writeRelease = b.record.TrySetRelease
	return b
}

// Path returns the derived lock-file path this handle is bound to.
func (b *BasicLock) Path() string {
	return b.lockPath
}

// TryAcquireUntil attempts to acquire the lock with the release instant set
// to until. It never blocks and never returns an error: contention is
// reported as false.
//
// It does not rely on POSIX O_EXCL semantics (spec.md §5): it checks file
// existence with a plain Stat, and when the file exists, compares the
// LockRecord's release instant against now. Both checks race against
// concurrent writers; that race is accepted, not engineered away (spec.md
// §4.1, §8 P1/P2).
func (b *BasicLock) TryAcquireUntil(until ticks.Instant) bool {
	if _, err := os.Stat(b.lockPath); err != nil && os.IsNotExist(err) {
		return b.writeRelease(until)
	}

	if current := b.record.GetRelease(); current.After(ticks.Now()) {
		return false
	}

	return b.writeRelease(until)
}

// TryAcquireFor is TryAcquireUntil with until = now + duration. If refresh
// is true and acquisition succeeds, a background task is started that
// periodically extends the lock until Dispose is called.
func (b *BasicLock) TryAcquireFor(duration time.Duration, refresh bool) bool {
	ok := b.TryAcquireUntil(ticks.Now().Add(duration))
	if ok && refresh {
		b.startRefresh(duration)
	}
	return ok
}

// AddTime reads the current release instant and writes back release+d. No
// failure is propagated; a caller that is not sure it still holds the lock
// should not rely on this having any effect.
func (b *BasicLock) AddTime(d time.Duration) {
	current := b.record.GetRelease()
	if !b.writeRelease(current.Add(d)) {
		b.logger.Debug().Str("lock_path", b.lockPath).Msg("add_time: best-effort release extension failed")
	}
}

// GetReleaseDate returns the current release instant, or ticks.FarFuture if
// no lock file exists.
func (b *BasicLock) GetReleaseDate() ticks.Instant {
	return b.record.GetRelease()
}

// Dispose fires the handle's cancellation signal — stopping any refresh
// task — then unconditionally deletes the lock file if it still exists.
// Dispose is idempotent and never returns an error; I/O failures during
// deletion are swallowed (spec.md §4.2, §4.4).
func (b *BasicLock) Dispose() {
	b.closeOnce.Do(func() { close(b.cancel) })
	b.refreshWG.Wait()

	if _, err := os.Stat(b.lockPath); err != nil {
		return
	}
	if err := os.Remove(b.lockPath); err != nil {
		b.logger.Debug().Err(err).Str("lock_path", b.lockPath).Msg("dispose: best-effort lock file removal failed")
	}
}

// startRefresh launches the continuous-refresh task: it extends the release
// by RefreshFactor*duration, then sleeps that same interval, and repeats,
// exiting promptly once Dispose fires the cancellation signal. Implemented literally as spec.md §4.2/§9 describe —
// refresh and sleep are scheduled sequentially with the same base interval,
// so the acknowledged timing drift under load is preserved rather than
// corrected.
func (b *BasicLock) startRefresh(duration time.Duration) {
	interval := time.Duration(float64(duration) * RefreshFactor)
	if interval <= 0 {
		return
	}

	b.refreshWG.Add(1)
	go func() {
		defer b.refreshWG.Done()
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			b.AddTime(interval)

			select {
			case <-b.cancel:
				return
			case <-timer.C:
			}

			timer.Reset(interval)
		}
	}()
}
