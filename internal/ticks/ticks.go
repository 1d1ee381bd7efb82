// Package ticks converts between Go's time.Time and the 100-nanosecond tick
// count used by System.DateTime.Ticks, so lock files stay byte-compatible
// with the original .NET implementation this module's wire format is drawn
// from.
package ticks

import (
	"math"
	"time"
)

// Instant is a release instant expressed as 100-nanosecond ticks since
// 0001-01-01 00:00:00 UTC.
type Instant int64

const (
	// PerSecond is the number of ticks in one second.
	PerSecond = int64(time.Second / 100)

	// unixEpoch is the tick count at 1970-01-01 00:00:00 UTC, i.e. the
	// offset between the .NET epoch and the Unix epoch.
	unixEpoch = int64(621355968000000000)

	// FarFuture is the sentinel LockRecord.GetRelease returns when no lock
	// file exists, or a read is judged unreliable. It compares greater than
	// any real instant.
	FarFuture Instant = math.MaxInt64

	// FarPast is the sentinel a TimedLock's cached release field holds
	// before it has ever written a release instant.
	FarPast Instant = math.MinInt64
)

// Now returns the current instant.
func Now() Instant {
	return FromTime(time.Now())
}

// FromTime converts a wall-clock time to its tick representation.
func FromTime(t time.Time) Instant {
	return Instant(unixEpoch + t.UTC().UnixNano()/100)
}

// Time converts back to a wall-clock time. Callers must not call this on
// FarFuture or FarPast; both are sentinels, not real instants.
func (i Instant) Time() time.Time {
	return time.Unix(0, 0).UTC().Add(time.Duration(int64(i)-unixEpoch) * 100)
}

// Add returns i advanced by d, saturating at FarFuture/FarPast instead of
// wrapping on overflow.
func (i Instant) Add(d time.Duration) Instant {
	delta := Instant(d.Nanoseconds() / 100)
	switch {
	case delta > 0 && i > FarFuture-delta:
		return FarFuture
	case delta < 0 && i < FarPast-delta:
		return FarPast
	default:
		return i + delta
	}
}

// Sub returns the duration i-other.
func (i Instant) Sub(other Instant) time.Duration {
	return time.Duration(int64(i)-int64(other)) * 100
}

// After reports whether i is strictly later than other.
func (i Instant) After(other Instant) bool {
	return i > other
}
