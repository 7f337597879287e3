package hwio

import "time"

// SystemRTC satisfies RTC from the host's wall clock. The real hardware
// RTC module re-reads on every call the same way; there is no caching
// or drift correction here.
type SystemRTC struct{}

func (SystemRTC) Now() (DateTime, error) {
	t := time.Now()
	return DateTime{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}, nil
}
