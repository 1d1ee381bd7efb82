package filelock

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTargetPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "data.txt")
}

// Scenario 1 (spec.md §8): basic acquire.
func TestScenario1BasicAcquire(t *testing.T) {
	target := newTargetPath(t)
	a := New(target)

	require.True(t, a.TryAcquireFor(time.Hour, false))
	require.FileExists(t, LockPath(target))

	release := a.GetReleaseDate()
	wantRelease := time.Now().Add(time.Hour)
	require.WithinDuration(t, wantRelease, release.Time(), 5*time.Second)
}

// Scenario 2 / P1: second acquire is blocked while the first is live.
func TestScenario2SecondAcquireBlocked(t *testing.T) {
	target := newTargetPath(t)
	a := New(target)
	b := New(target)

	require.True(t, a.TryAcquireFor(time.Hour, false))
	require.False(t, b.TryAcquireFor(time.Hour, false))
}

// Scenario 3 / P2: re-acquisition succeeds once the prior release has
// passed, without the original holder disposing.
func TestScenario3AcquireAfterExpiry(t *testing.T) {
	target := newTargetPath(t)
	a := New(target)

	require.True(t, a.TryAcquireFor(200*time.Millisecond, false))
	time.Sleep(400 * time.Millisecond)

	require.True(t, a.TryAcquireFor(10*time.Second, false))
}

// Scenario 4 / P3: AddTime is monotonic.
func TestScenario4AddTime(t *testing.T) {
	target := newTargetPath(t)
	a := New(target)

	require.True(t, a.TryAcquireFor(time.Hour, false))
	a.AddTime(time.Hour)

	wantRelease := time.Now().Add(2 * time.Hour)
	require.WithinDuration(t, wantRelease, a.GetReleaseDate().Time(), 5*time.Second)
}

// Scenario 5 / P4: Dispose deletes the lock file unconditionally for
// BasicLock.
func TestScenario5DisposeDeletes(t *testing.T) {
	target := newTargetPath(t)
	a := New(target)

	require.True(t, a.TryAcquireFor(time.Hour, false))
	a.Dispose()

	require.NoFileExists(t, LockPath(target))
}

func TestDisposeIsIdempotent(t *testing.T) {
	target := newTargetPath(t)
	a := New(target)
	require.True(t, a.TryAcquireFor(time.Minute, false))

	require.NotPanics(t, func() {
		a.Dispose()
		a.Dispose()
	})
}

func TestDisposeWithoutAcquireIsANoOp(t *testing.T) {
	a := New(newTargetPath(t))
	require.NotPanics(t, a.Dispose)
}

func TestGetReleaseDateNoLock(t *testing.T) {
	a := New(newTargetPath(t))
	require.Equal(t, ticksFarFuture(), a.GetReleaseDate())
}

func TestTryAcquireUntilExplicitInstant(t *testing.T) {
	target := newTargetPath(t)
	a := New(target)

	until := nowInstant().Add(30 * time.Minute)
	require.True(t, a.TryAcquireUntil(until))
	require.Equal(t, until, a.GetReleaseDate())
}

func TestContinuousRefreshExtendsBeyondOriginalDuration(t *testing.T) {
	target := newTargetPath(t)
	a := New(target)

	duration := 120 * time.Millisecond
	require.True(t, a.TryAcquireFor(duration, true))

	originalRelease := a.GetReleaseDate()

	// The refresh task runs at RefreshFactor*duration (~108ms); give it two
	// cycles to fire.
	time.Sleep(350 * time.Millisecond)

	refreshedRelease := a.GetReleaseDate()
	a.Dispose()

	require.True(t, refreshedRelease.Sub(originalRelease) > 0,
		"refresh task should have extended the release date past its original value")
}

func TestRefreshStopsOnDispose(t *testing.T) {
	target := newTargetPath(t)
	a := New(target)

	require.True(t, a.TryAcquireFor(60*time.Millisecond, true))
	a.Dispose()

	// Lock file should be gone and stay gone; a refresh goroutine that kept
	// running after Dispose would recreate it.
	require.NoFileExists(t, LockPath(target))
	time.Sleep(200 * time.Millisecond)
	require.NoFileExists(t, LockPath(target))
}

func TestLockPathReplacesExtension(t *testing.T) {
	require.Equal(t, "/tmp/data.lock", LockPath("/tmp/data.txt"))
	require.Equal(t, "/tmp/data.lock", LockPath("/tmp/data"))
}

func TestTwoHandlesOnSamePathAreIndependentParticipants(t *testing.T) {
	target := newTargetPath(t)
	a := New(target)
	b := New(target)

	require.True(t, a.TryAcquireFor(time.Hour, false))
	require.False(t, b.TryAcquireFor(time.Hour, false))

	a.Dispose()

	require.True(t, b.TryAcquireFor(time.Hour, false))
}

func TestWithLoggerDoesNotPanicOnNetworkFSDetection(t *testing.T) {
	// Regression guard: constructing a handle with a logger attached in an
	// ordinary tmp dir, and disposing it, must not panic.
	dir := t.TempDir()
	target := filepath.Join(dir, "data.txt")
	require.NotPanics(t, func() {
		a := New(target, WithLogger(discardLogger()))
		a.Dispose()
	})
}

func TestAcquireUnderNonDirectoryParentFailsCleanly(t *testing.T) {
	// Acquiring where the lock file's parent path runs through a regular
	// file must fail cleanly (false), not panic or return an error.
	blocked := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o600))

	a := New(filepath.Join(blocked, "nested", "data.txt"))
	require.False(t, a.TryAcquireFor(time.Minute, false))
}
