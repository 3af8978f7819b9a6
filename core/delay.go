package core

// TimeSource is the microsecond clock busy waits poll. The default reads
// Micros; tests install a source that advances simulated time.
type TimeSource interface {
	Micros() uint32
}

type hardwareTime struct{}

func (hardwareTime) Micros() uint32 {
	return Micros()
}

var timeSource TimeSource = hardwareTime{}

// SetTimeSource replaces the clock used by Delay, DelayMicroseconds and
// PulseIn. nil restores the hardware clock.
func SetTimeSource(ts TimeSource) {
	if ts == nil {
		ts = hardwareTime{}
	}
	timeSource = ts
}

// Elapsed reports whether at least bound microseconds lie between start and
// now. The subtraction makes it correct across a counter wrap.
func Elapsed(start, now, bound uint32) bool {
	return now-start >= bound
}

// DelayMicroseconds busy-waits for us microseconds. Interrupts must be
// enabled for the clock to advance.
func DelayMicroseconds(us uint32) {
	start := timeSource.Micros()
	for !Elapsed(start, timeSource.Micros(), us) {
	}
}

// Delay busy-waits for ms milliseconds. Each millisecond is measured from
// the end of the previous one so the wait does not drift.
func Delay(ms uint32) {
	start := timeSource.Micros()
	for ms > 0 {
		if Elapsed(start, timeSource.Micros(), 1000) {
			ms--
			start += 1000
		}
	}
}
