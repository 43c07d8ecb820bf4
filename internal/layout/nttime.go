package layout

import "time"

// ntEpoch is 1601-01-01 00:00:00 UTC, the NT tick epoch.
var ntEpoch = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimeToNTTicks converts a time.Time to the number of 100-nanosecond
// intervals since the NT epoch.
func TimeToNTTicks(t time.Time) uint64 {
	if t.Before(ntEpoch) {
		return 0
	}

	return uint64(t.Sub(ntEpoch) / 100)
}

// NTTicksToTime converts NT ticks since 1601-01-01 to a time.Time in UTC.
func NTTicksToTime(ticks uint64) time.Time {
	return ntEpoch.Add(time.Duration(ticks) * 100)
}

// SplitNTTicks returns the high and low 32-bit halves of an NT-tick value,
// in the order the XML manifest's HIGHPART/LOWPART fields expect.
func SplitNTTicks(ticks uint64) (high, low uint32) {
	return uint32(ticks >> 32), uint32(ticks)
}
