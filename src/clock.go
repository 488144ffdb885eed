package cwkey

import (
	"golang.org/x/sys/unix"
)

// SystemClock reads CLOCK_MONOTONIC.  The count wraps after about 49 days,
// which the engine's unsigned subtraction takes in its stride.
type SystemClock struct{}

func (SystemClock) Millis() uint32 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}

	return uint32(ts.Nano() / 1e6) //nolint:gosec
}
