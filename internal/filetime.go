package internal

import "time"

// filetimeUnixEpochTicks is the number of 100ns FILETIME ticks between the
// Windows epoch (1601-01-01 UTC) and the Unix epoch (1970-01-01 UTC).
const filetimeUnixEpochTicks uint64 = 116444736000000000

// DecodeFILETIME converts a raw Windows FILETIME (a u64 count of 100ns
// ticks since 1601-01-01 UTC) into a time.Time. The value 0 means "absent",
// reported via the second return.
func DecodeFILETIME(raw uint64) (time.Time, bool) {
	if raw == 0 {
		return time.Time{}, false
	}
	ticksSinceUnixEpoch := raw - filetimeUnixEpochTicks
	return time.Unix(0, int64(ticksSinceUnixEpoch)*100).UTC(), true
}
