package cronsched

import "time"

// Clock is a monotonic "now" source, injectable so tests can control time
// without sleeping real wall-clock seconds.
type Clock interface {
	NowMS() int64
}

// systemClock is the default Clock backed by time.Now.
type systemClock struct{}

func (systemClock) NowMS() int64 {
	return time.Now().UnixMilli()
}

// msToTime converts a millisecond epoch timestamp back to a time.Time.
func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}
