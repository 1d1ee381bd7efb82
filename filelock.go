// Package filelock implements a cross-process advisory file-based lock with
// an explicit expiry date and optional continuous refresh, plus a timed
// acquisition protocol that waits for a conflicting lock to be released (or
// to expire) up to a caller-supplied deadline.
//
// Locks are advisory: they are honored only by cooperating participants
// that go through this package. There is no kernel-enforced mandatory
// locking, no distributed consensus across machines, and no ordering
// fairness between waiters — acquisition is opportunistic. See SPEC_FULL.md
// and DESIGN.md for the full design.
package filelock

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// MinGranularity is the minimum permitted timeout or retry interval for
	// TryAcquireOrTimeout, and the poll interval used once a wait has passed
	// the conflicting lock's observed release instant. It reflects the
	// typical minimum OS timer resolution on commodity platforms.
	MinGranularity = 15 * time.Millisecond

	// RefreshFactor is the fraction of the acquisition duration a
	// continuous-refresh task waits between extensions, leaving slack so a
	// single missed refresh cycle does not let the lock lapse.
	RefreshFactor = 0.9
)

// LockPath derives the lock-file path for a target resource path by
// replacing its extension with ".lock", so the lock file lives alongside
// the resource it guards (e.g. "/tmp/data.txt" -> "/tmp/data.lock").
func LockPath(resourcePath string) string {
	ext := filepath.Ext(resourcePath)
	return strings.TrimSuffix(resourcePath, ext) + ".lock"
}
