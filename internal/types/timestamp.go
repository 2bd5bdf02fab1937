package types

import (
	"strconv"
	"strings"
	"time"
)

// Timestamp is a filesystem time in seconds and nanoseconds since the Unix epoch
type Timestamp struct {
	Sec  int64
	Nsec uint32
}

// FromTime converts a time.Time
func FromTime(t time.Time) Timestamp {
	return Timestamp{Sec: t.Unix(), Nsec: uint32(t.Nanosecond())}
}

// Time returns the timestamp as UTC time.Time
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Sec, int64(ts.Nsec)).UTC()
}

// FormatTimestamp renders ISO-8601 UTC with trailing zeros of the fraction trimmed,
// e.g. 2012-08-07T22:13:53.84Z
func FormatTimestamp(sec int64, nsec uint32) string {
	out := time.Unix(sec, 0).UTC().Format("2006-01-02T15:04:05")
	if nsec%1_000_000_000 != 0 {
		frac := strconv.FormatUint(uint64(nsec%1_000_000_000)+1_000_000_000, 10)[1:]
		out += "." + strings.TrimRight(frac, "0")
	}
	return out + "Z"
}

func (ts Timestamp) String() string {
	return FormatTimestamp(ts.Sec, ts.Nsec)
}

// MarshalText emits the ISO form in records
func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}
