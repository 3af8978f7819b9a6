// Interrupt-driven RC servo pulses on Timer1
package core

// Up to MaxServos channels share Timer1 in CTC mode at clk/8 (two ticks per
// microsecond). The compare A vector ends the running pulse, starts the next
// attached channel and, after the last one, waits out the rest of the 20 ms
// frame. Slots are allocated by NewServo and never freed.
var (
	servoSlots [MaxServos]servoSlot
	servoCount uint8
	servoSched = newServoScheduler()
)

// Servo is a handle on one channel slot.
type Servo struct {
	index uint8
	minUS uint16
	maxUS uint16
}

// NewServo allocates the next channel slot. It panics when all MaxServos
// slots are in use: there is no way to recover one.
func NewServo() *Servo {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if servoCount >= MaxServos {
		panic("too many servos")
	}
	idx := servoCount
	servoCount++
	servoSlots[idx] = servoSlot{width: DefaultPulseWidth}
	return &Servo{index: idx, minUS: MinPulseWidth, maxUS: MaxPulseWidth}
}

// Index returns the slot number, which is also the channel's position in the
// frame.
func (s *Servo) Index() uint8 {
	return s.index
}

// Limits returns the pulse widths for 0 and 180 degrees.
func (s *Servo) Limits() (minUS, maxUS uint16) {
	return s.minUS, s.maxUS
}

// Attach drives the servo from pin with the default 544-2400 µs limits.
func (s *Servo) Attach(pin uint8) error {
	return s.AttachWithLimits(pin, MinPulseWidth, MaxPulseWidth)
}

// AttachWithLimits drives the servo from pin with custom limits. The range
// must span at least 180 µs so every degree maps to its own width, and the
// maximum must fit in one frame.
func (s *Servo) AttachWithLimits(pin uint8, minUS, maxUS uint16) error {
	loc, err := locate(GPIOPin(pin))
	if err != nil {
		return err
	}
	if maxUS <= minUS || maxUS-minUS < 180 || maxUS > RefreshInterval {
		return ErrServoLimits
	}

	state := disableInterrupts()
	s.minUS, s.maxUS = minUS, maxUS
	loc.write(false)
	regSetBits(loc.regs.DDR, loc.mask)

	slot := &servoSlots[s.index]
	if slot.attached && slot.pin != pin {
		// the vector only ever lowers the slot's current pin
		slot.loc.write(false)
	}
	slot.pin = pin
	slot.loc = loc
	slot.width = clampWidth(slot.width, minUS, maxUS)
	slot.attached = true

	started := false
	if servoSched.phase == phaseIdle {
		startServoTimer()
		started = true
	}
	restoreInterrupts(state)
	if started {
		enableInterrupts()
	}

	DebugPrintln("[SERVO] attach " + utoa(uint32(s.index)) + " pin=" + utoa(uint32(pin)))
	return nil
}

// Detach removes the channel from the frame and drives its pin low right
// away, so a pulse in flight is cut short instead of left high.
func (s *Servo) Detach() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	slot := &servoSlots[s.index]
	if !slot.attached {
		return
	}
	slot.attached = false
	slot.loc.write(false)
}

// Attached reports whether the channel is part of the frame.
func (s *Servo) Attached() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return servoSlots[s.index].attached
}

// Write sets the position in degrees. Angles above 180 are treated as 180.
func (s *Servo) Write(angle uint16) {
	if angle > 180 {
		angle = 180
	}
	s.WriteMicroseconds(angleToWidth(angle, s.minUS, s.maxUS))
}

// WriteMicroseconds sets the pulse width, clamped to the channel limits. It
// takes effect on the channel's next pulse.
func (s *Servo) WriteMicroseconds(us uint16) {
	us = clampWidth(us, s.minUS, s.maxUS)
	state := disableInterrupts()
	defer restoreInterrupts(state)
	servoSlots[s.index].width = us
}

// Read returns the position in degrees derived from the pulse width.
func (s *Servo) Read() uint16 {
	return widthToAngle(s.ReadMicroseconds(), s.minUS, s.maxUS)
}

// ReadMicroseconds returns the pulse width.
func (s *Servo) ReadMicroseconds() uint16 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return servoSlots[s.index].width
}

func clampWidth(us, lo, hi uint16) uint16 {
	if us < lo {
		return lo
	}
	if us > hi {
		return hi
	}
	return us
}

func angleToWidth(angle, lo, hi uint16) uint16 {
	return lo + uint16(uint32(angle)*uint32(hi-lo)/180)
}

func widthToAngle(us, lo, hi uint16) uint16 {
	us = clampWidth(us, lo, hi)
	return uint16(uint32(us-lo) * 180 / uint32(hi-lo))
}

// startServoTimer puts Timer1 in CTC mode at clk/8 and arms the scheduler.
// Called with interrupts disabled.
func startServoTimer() {
	Timer1.Stop()
	Timer1.DisconnectOutput(ChannelA)
	Timer1.DisconnectOutput(ChannelB)
	Timer1.SetMode(ModeCTC)
	step := servoSched.start()
	Timer1.SetCompare(ChannelA, step.ticks)
	Timer1.SetCounter(0)
	Timer1.ClearAllPending()
	Timer1.EnableInterrupt(SourceCompareA)
	_ = Timer1.SetPrescaler(servoPrescaler)
}

// timer1CompareA is the TIMER1_COMPA vector body.
func timer1CompareA() {
	step := servoSched.fire(servoSlots[:servoCount])

	if step.lowPin != servoNoChannel {
		servoSlots[step.lowPin].loc.write(false)
	}

	switch step.phase {
	case phaseIdle:
		Timer1.DisableInterrupt(SourceCompareA)
		Timer1.Stop()
		return
	case phasePulse:
		servoSlots[step.highPin].loc.write(true)
		RecordTiming(EvtServoPulse, uint8(step.highPin), sysClock.Millis(), uint32(step.ticks), servoSched.spent)
	case phaseGap:
		if step.ticks < servoMinGapTicks {
			step.ticks = servoMinGapTicks
		}
		RecordTiming(EvtServoGap, 0, sysClock.Millis(), uint32(step.ticks), servoSched.spent)
	}
	Timer1.SetCompare(ChannelA, step.ticks)
	Timer1.SetCounter(0)
}

// ServoPhase reports the scheduler state: "idle", "pulse" or "gap".
func ServoPhase() string {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return servoSched.phase.String()
}
