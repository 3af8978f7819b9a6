package core

import "unohal/atmega"

// Timer is one of the three hardware counters. Each is owned by convention:
// Timer0 keeps time (and drives PWM on D5/D6 at its fixed rate), Timer1 runs
// the servo scheduler or PWM on D9/D10, Timer2 runs the tone generator or PWM
// on D3/D11. Nothing checks this at runtime.
type Timer uint8

const (
	Timer0 Timer = iota // 8-bit
	Timer1              // 16-bit
	Timer2              // 8-bit, asynchronous prescaler
)

// Prescaler is a clock divisor. Zero stops the timer.
type Prescaler uint16

const (
	PrescaleStop Prescaler = 0
	Prescale1    Prescaler = 1
	Prescale8    Prescaler = 8
	Prescale32   Prescaler = 32 // Timer2 only
	Prescale64   Prescaler = 64
	Prescale128  Prescaler = 128 // Timer2 only
	Prescale256  Prescaler = 256
	Prescale1024 Prescaler = 1024
)

// WaveformMode selects how the counter runs and where it wraps.
type WaveformMode uint8

const (
	ModeNormal          WaveformMode = iota // count to MAX
	ModePhaseCorrectPWM                     // 8-bit, up and down
	ModeCTC                                 // clear on compare match A
	ModeFastPWM                             // 8-bit, wrap at 0xFF
)

// Channel is a compare unit and its output pin.
type Channel uint8

const (
	ChannelA Channel = iota
	ChannelB
)

// TimerSource is one of the interrupt sources of a timer.
type TimerSource uint8

const (
	SourceOverflow TimerSource = iota
	SourceCompareA
	SourceCompareB
)

type timerRegs struct {
	tccrA, tccrB uint16
	tcnt         uint16
	ocr          [2]uint16
	timsk, tifr  uint16
	wide         bool
	clock        []atmega.ClockSelect
}

var timerTable = [3]timerRegs{
	Timer0: {
		tccrA: atmega.TCCR0A, tccrB: atmega.TCCR0B, tcnt: atmega.TCNT0,
		ocr:   [2]uint16{atmega.OCR0A, atmega.OCR0B},
		timsk: atmega.TIMSK0, tifr: atmega.TIFR0,
		clock: atmega.ClockSelect01,
	},
	Timer1: {
		tccrA: atmega.TCCR1A, tccrB: atmega.TCCR1B, tcnt: atmega.TCNT1L,
		ocr:   [2]uint16{atmega.OCR1AL, atmega.OCR1BL},
		timsk: atmega.TIMSK1, tifr: atmega.TIFR1,
		clock: atmega.ClockSelect01, wide: true,
	},
	Timer2: {
		tccrA: atmega.TCCR2A, tccrB: atmega.TCCR2B, tcnt: atmega.TCNT2,
		ocr:   [2]uint16{atmega.OCR2A, atmega.OCR2B},
		timsk: atmega.TIMSK2, tifr: atmega.TIFR2,
		clock: atmega.ClockSelect2,
	},
}

func (t Timer) regs() *timerRegs {
	return &timerTable[t]
}

func (t Timer) String() string {
	switch t {
	case Timer0:
		return "timer0"
	case Timer1:
		return "timer1"
	case Timer2:
		return "timer2"
	}
	return "timer?"
}

// Wide reports whether the counter is 16 bits.
func (t Timer) Wide() bool {
	return t.regs().wide
}

// Max is the largest counter value.
func (t Timer) Max() uint16 {
	if t.Wide() {
		return 0xFFFF
	}
	return 0xFF
}

func (t Timer) read(addr uint16) uint16 {
	if !t.Wide() {
		return uint16(regGet(addr))
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return regGet16(addr)
}

func (t Timer) write(addr uint16, v uint16) {
	if !t.Wide() {
		regSet(addr, uint8(v))
		return
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	regSet16(addr, v)
}

// Counter returns the live counter value.
func (t Timer) Counter() uint16 {
	return t.read(t.regs().tcnt)
}

// SetCounter writes the counter.
func (t Timer) SetCounter(v uint16) {
	t.write(t.regs().tcnt, v)
}

// Compare returns the compare register of a channel.
func (t Timer) Compare(ch Channel) uint16 {
	return t.read(t.regs().ocr[ch&1])
}

// SetCompare writes the compare register of a channel.
func (t Timer) SetCompare(ch Channel, v uint16) {
	t.write(t.regs().ocr[ch&1], v)
}

// SetPrescaler selects the clock divisor. PrescaleStop halts the counter.
// The other bits of TCCRnB are preserved.
func (t Timer) SetPrescaler(p Prescaler) error {
	var bits uint8
	if p != PrescaleStop {
		var ok bool
		bits, ok = atmega.BitsFor(t.regs().clock, uint16(p))
		if !ok {
			return ErrInvalidPrescaler
		}
	}
	regModify(t.regs().tccrB, atmega.CSMask, bits)
	return nil
}

// Prescaler returns the divisor currently selected.
func (t Timer) Prescaler() Prescaler {
	return Prescaler(atmega.DivisorFor(t.regs().clock, regGet(t.regs().tccrB)))
}

// Stop halts the counter by clearing its clock select bits.
func (t Timer) Stop() {
	regClearBits(t.regs().tccrB, atmega.CSMask)
}

// SetMode selects the waveform generation mode. On Timer1 the PWM modes are
// the 8-bit variants so all three timers share the same duty range.
func (t Timer) SetMode(m WaveformMode) {
	r := t.regs()
	var a, b uint8
	if !r.wide {
		switch m {
		case ModePhaseCorrectPWM:
			a = atmega.WGMn0
		case ModeCTC:
			a = atmega.WGMn1
		case ModeFastPWM:
			a = atmega.WGMn0 | atmega.WGMn1
		}
	} else {
		switch m {
		case ModePhaseCorrectPWM: // mode 1
			a = atmega.WGMn0
		case ModeCTC: // mode 4
			b = atmega.WGMn2
		case ModeFastPWM: // mode 5
			a = atmega.WGMn0
			b = atmega.WGMn2
		}
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	regModify(r.tccrA, atmega.WGMn0|atmega.WGMn1, a)
	regModify(r.tccrB, atmega.WGMn2|atmega.WGM13, b)
}

// Mode decodes the waveform generation mode. Modes this package never sets
// are reported as ModeNormal.
func (t Timer) Mode() WaveformMode {
	r := t.regs()
	a := regGet(r.tccrA) & (atmega.WGMn0 | atmega.WGMn1)
	b := regGet(r.tccrB) & (atmega.WGMn2 | atmega.WGM13)
	if !r.wide {
		if b != 0 {
			return ModeNormal
		}
		switch a {
		case atmega.WGMn0:
			return ModePhaseCorrectPWM
		case atmega.WGMn1:
			return ModeCTC
		case atmega.WGMn0 | atmega.WGMn1:
			return ModeFastPWM
		}
		return ModeNormal
	}
	switch {
	case a == atmega.WGMn0 && b == 0:
		return ModePhaseCorrectPWM
	case a == 0 && b == atmega.WGMn2:
		return ModeCTC
	case a == atmega.WGMn0 && b == atmega.WGMn2:
		return ModeFastPWM
	}
	return ModeNormal
}

func sourceBit(src TimerSource) uint8 {
	switch src {
	case SourceCompareA:
		return atmega.OCIEA
	case SourceCompareB:
		return atmega.OCIEB
	}
	return atmega.TOIE
}

// EnableInterrupt sets the interrupt enable bit of a source.
func (t Timer) EnableInterrupt(src TimerSource) {
	regSetBits(t.regs().timsk, sourceBit(src))
}

// DisableInterrupt clears the interrupt enable bit of a source.
func (t Timer) DisableInterrupt(src TimerSource) {
	regClearBits(t.regs().timsk, sourceBit(src))
}

// InterruptEnabled reports the interrupt enable bit of a source.
func (t Timer) InterruptEnabled(src TimerSource) bool {
	return regGet(t.regs().timsk)&sourceBit(src) != 0
}

// Pending reports whether the flag of a source is set. Flags stay set while
// interrupts are disabled and are cleared by hardware when the vector runs.
func (t Timer) Pending(src TimerSource) bool {
	return regGet(t.regs().tifr)&sourceBit(src) != 0
}

// ClearPending clears one flag (flags are cleared by writing one).
func (t Timer) ClearPending(src TimerSource) {
	regSet(t.regs().tifr, sourceBit(src))
}

// ClearAllPending clears overflow and both compare flags.
func (t Timer) ClearAllPending() {
	regSet(t.regs().tifr, atmega.TOV|atmega.OCFA|atmega.OCFB)
}

func comBits(ch Channel) (com0, com1 uint8) {
	if ch == ChannelB {
		return atmega.COMnB0, atmega.COMnB1
	}
	return atmega.COMnA0, atmega.COMnA1
}

// ConnectOutput routes the channel's compare output to its pin in
// non-inverting mode (clear on match, set at BOTTOM).
func (t Timer) ConnectOutput(ch Channel) {
	com0, com1 := comBits(ch)
	regModify(t.regs().tccrA, com0|com1, com1)
}

// DisconnectOutput returns the pin to normal port operation.
func (t Timer) DisconnectOutput(ch Channel) {
	com0, com1 := comBits(ch)
	regClearBits(t.regs().tccrA, com0|com1)
}

// OutputConnected reports whether the channel drives its pin.
func (t Timer) OutputConnected(ch Channel) bool {
	com0, com1 := comBits(ch)
	return regGet(t.regs().tccrA)&(com0|com1) != 0
}

// SetInputCapture writes ICR1. Only Timer1 has an input capture unit.
func (t Timer) SetInputCapture(v uint16) error {
	if t != Timer1 {
		return ErrNoInputCapture
	}
	t.write(atmega.ICR1L, v)
	return nil
}

// ForceOutputCompare strobes a compare match on the channel's output pin
// without setting the flag or clearing the counter.
func (t Timer) ForceOutputCompare(ch Channel) {
	var bit uint8 = atmega.FOC1A
	if ch == ChannelB {
		bit = atmega.FOC1B
	}
	if t == Timer1 {
		regSet(atmega.TCCR1C, bit)
		return
	}
	// FOCnA/FOCnB sit at the same positions in TCCR0B and TCCR2B
	regSetBits(t.regs().tccrB, bit)
}
