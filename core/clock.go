package core

import "unohal/atmega"

// Timer0 runs at clk/64 in fast PWM mode and overflows every 256 counts,
// i.e. every 1024 µs at 16 MHz. Each overflow adds one whole millisecond and
// 24 µs of fraction; the fraction is kept in 8 µs units so it fits a byte.
const (
	clockPrescaler    = 64
	microsPerCount    = clockPrescaler / (atmega.CPUFrequency / 1000000)
	MicrosPerOverflow = microsPerCount * 256

	millisInc = MicrosPerOverflow / 1000
	fractInc  = (MicrosPerOverflow % 1000) >> 3
	fractMax  = 1000 >> 3
)

// Clock accumulates timer overflows into milliseconds. It is updated only
// from the Timer0 overflow vector; foreground code reads it through Millis
// and Micros.
type Clock struct {
	millis    uint32
	fract     uint8
	overflows uint32
}

// Overflow accounts for one counter overflow.
func (c *Clock) Overflow() {
	m := c.millis + millisInc
	f := c.fract + fractInc
	if f >= fractMax {
		f -= fractMax
		m++
	}
	c.millis = m
	c.fract = f
	c.overflows++
}

// Millis returns the whole milliseconds counted so far.
func (c *Clock) Millis() uint32 {
	return c.millis
}

// Overflows returns the number of overflows counted so far.
func (c *Clock) Overflows() uint32 {
	return c.overflows
}

// Micros combines the overflow count with a counter value read from the
// hardware. pending is the overflow flag read after the counter: when it is
// set and the counter has already wrapped, the overflow has happened but its
// vector has not run yet, so one more overflow is added. A counter still at
// 255 means the wrap came after the counter was read.
func (c *Clock) Micros(count uint8, pending bool) uint32 {
	ov := c.overflows
	if pending && count < 255 {
		ov++
	}
	return ov*MicrosPerOverflow + uint32(count)*microsPerCount
}

var (
	sysClock     Clock
	clockRunning bool
)

// InitClock starts Timer0 as the time base and enables interrupts. It must
// run once; Take guarantees that.
func InitClock() {
	state := disableInterrupts()
	Timer0.SetMode(ModeFastPWM)
	_ = Timer0.SetPrescaler(clockPrescaler)
	Timer0.ClearPending(SourceOverflow)
	Timer0.EnableInterrupt(SourceOverflow)
	sysClock = Clock{}
	clockRunning = true
	restoreInterrupts(state)

	enableInterrupts()
}

// ClockRunning reports whether InitClock has run.
func ClockRunning() bool {
	return clockRunning
}

// timer0Overflow is the TIMER0_OVF vector body.
func timer0Overflow() {
	sysClock.Overflow()
}

// Millis returns milliseconds since InitClock. It wraps after about 49.7
// days; compare intervals with subtraction, never with <.
func Millis() uint32 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return sysClock.millis
}

// Micros returns microseconds since InitClock with 4 µs resolution. It wraps
// after about 71.6 minutes.
func Micros() uint32 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	count := uint8(Timer0.Counter())
	pending := Timer0.Pending(SourceOverflow)
	return sysClock.Micros(count, pending)
}
