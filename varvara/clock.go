package varvara

import "time"

// Clock is a source of the current local time for the Datetime device.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the host's local time.
var SystemClock Clock = ClockFunc(time.Now)

// readDatetime returns the Datetime device port p, and reports whether the
// port is backed by the clock.
func readDatetime(c Clock, p byte) (byte, bool) {
	t := c.Now()
	switch p {
	case 0x0:
		return byte(t.Year() >> 8), true
	case 0x1:
		return byte(t.Year()), true
	case 0x2:
		return byte(t.Month()) - 1, true // January is 0
	case 0x3:
		return byte(t.Day()) - 1, true
	case 0x4:
		return byte(t.Hour()), true
	case 0x5:
		return byte(t.Minute()), true
	case 0x6:
		return byte(t.Second()), true
	case 0x7:
		return byte(t.Weekday()), true // Sunday is 0
	case 0x8:
		return byte((t.YearDay() - 1) >> 8), true // 1 January is 0
	case 0x9:
		return byte(t.YearDay() - 1), true
	}
	return 0, false
}
