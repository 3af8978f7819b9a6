// Package sim is a register-level model of the ATmega328P used to run the HAL
// on a development machine. It implements the RegisterBus the core package
// talks to: the three timers count at their prescaled rate, raise flags and
// dispatch interrupt vectors in priority order while SREG.I is set, GPIO
// ports resolve pin levels from DDR, PORT and externally driven inputs, and
// INT0/INT1 and the pin-change banks latch their flags on pin edges.
//
// Phase-correct PWM is modelled as an up-counter with the same TOP, which
// keeps overflow and compare-match timing but not the output waveform.
//
// A Board is not safe for concurrent use.
package sim

import "unohal/atmega"

// Dispatcher receives interrupt vectors. It runs with SREG.I cleared, exactly
// like a vector on the chip.
type Dispatcher func(v atmega.Vector)

// Write is one entry of the register write log.
type Write struct {
	Addr  uint16
	Value uint8
	Cycle uint64
}

// PinEvent records a level change of an Arduino pin.
type PinEvent struct {
	Pin   uint8
	High  bool
	Cycle uint64
}

const memSize = 0x100

// Board holds the register file and the simulated time base.
type Board struct {
	mem  [memSize]uint8
	temp uint8 // shared TEMP latch of the 16-bit registers

	timers [3]*timer

	drive  [atmega.NumPins]int8 // -1 floating, 0 low, 1 high
	levels [atmega.NumPins]bool

	cycle     uint64
	dispatch  Dispatcher
	servicing bool

	writes []Write
	trace  []PinEvent
}

// New returns a board in its reset state. dispatch may be nil, in which case
// flags are raised but no vector ever runs.
func New(dispatch Dispatcher) *Board {
	b := &Board{dispatch: dispatch}
	b.timers[0] = &timer{
		b: b, tccrA: atmega.TCCR0A, tccrB: atmega.TCCR0B, tcnt: atmega.TCNT0,
		ocrA: atmega.OCR0A, ocrB: atmega.OCR0B, timsk: atmega.TIMSK0, tifr: atmega.TIFR0,
		clock: atmega.ClockSelect01,
	}
	b.timers[1] = &timer{
		b: b, tccrA: atmega.TCCR1A, tccrB: atmega.TCCR1B, tcnt: atmega.TCNT1L,
		ocrA: atmega.OCR1AL, ocrB: atmega.OCR1BL, timsk: atmega.TIMSK1, tifr: atmega.TIFR1,
		clock: atmega.ClockSelect01, wide: true,
	}
	b.timers[2] = &timer{
		b: b, tccrA: atmega.TCCR2A, tccrB: atmega.TCCR2B, tcnt: atmega.TCNT2,
		ocrA: atmega.OCR2A, ocrB: atmega.OCR2B, timsk: atmega.TIMSK2, tifr: atmega.TIFR2,
		clock: atmega.ClockSelect2,
	}
	for i := range b.drive {
		b.drive[i] = -1
	}
	return b
}

func isWideLow(addr uint16) bool {
	switch addr {
	case atmega.TCNT1L, atmega.ICR1L, atmega.OCR1AL, atmega.OCR1BL:
		return true
	}
	return false
}

func isWideHigh(addr uint16) bool {
	switch addr {
	case atmega.TCNT1H, atmega.ICR1H, atmega.OCR1AH, atmega.OCR1BH:
		return true
	}
	return false
}

// Load reads a register. Reading the low byte of a 16-bit register latches
// its high byte into TEMP; reading the high byte returns TEMP.
func (b *Board) Load(addr uint16) uint8 {
	if addr >= memSize {
		return 0
	}
	switch {
	case isWideLow(addr):
		b.temp = b.mem[addr+1]
		return b.mem[addr]
	case isWideHigh(addr):
		return b.temp
	}
	switch addr {
	case atmega.PINB:
		return b.pinRegister(atmega.PortB)
	case atmega.PINC:
		return b.pinRegister(atmega.PortC)
	case atmega.PIND:
		return b.pinRegister(atmega.PortD)
	}
	return b.mem[addr]
}

// Store writes a register with the side effects the chip applies.
func (b *Board) Store(addr uint16, value uint8) {
	if addr >= memSize {
		return
	}
	b.writes = append(b.writes, Write{Addr: addr, Value: value, Cycle: b.cycle})

	switch {
	case isWideHigh(addr):
		b.temp = value
		return
	case isWideLow(addr):
		b.mem[addr] = value
		b.mem[addr+1] = b.temp
		b.service()
		return
	}

	switch addr {
	case atmega.TIFR0, atmega.TIFR1, atmega.TIFR2, atmega.EIFR, atmega.PCIFR:
		// write one to clear
		b.mem[addr] &^= value
	case atmega.PINB, atmega.PINC, atmega.PIND:
		port := atmega.PortB
		if addr == atmega.PINC {
			port = atmega.PortC
		} else if addr == atmega.PIND {
			port = atmega.PortD
		}
		b.mem[port.Regs().PORT] ^= value
		b.updateLevels()
	case atmega.PORTB, atmega.PORTC, atmega.PORTD, atmega.DDRB, atmega.DDRC, atmega.DDRD:
		b.mem[addr] = value
		b.updateLevels()
	case atmega.TCCR0B, atmega.TCCR2B:
		// FOCnA/FOCnB strobes always read as zero
		b.mem[addr] = value &^ 0xC0
	case atmega.TCCR1C:
		b.mem[addr] = 0
	default:
		b.mem[addr] = value
	}
	b.service()
}

// Cycle returns the number of CPU cycles simulated so far.
func (b *Board) Cycle() uint64 {
	return b.cycle
}

// InterruptsEnabled reports the SREG.I bit.
func (b *Board) InterruptsEnabled() bool {
	return b.mem[atmega.SREG]&atmega.SREG_I != 0
}

// Peek returns the raw register contents without read side effects. For
// 16-bit registers pass the low address to get both bytes.
func (b *Board) Peek(addr uint16) uint8 {
	if addr >= memSize {
		return 0
	}
	return b.mem[addr]
}

// Peek16 returns a 16-bit register without touching TEMP.
func (b *Board) Peek16(low uint16) uint16 {
	return uint16(b.mem[low]) | uint16(b.mem[low+1])<<8
}

// Writes returns the register write log.
func (b *Board) Writes() []Write {
	return b.writes
}

// WritesTo returns the logged writes to one register.
func (b *Board) WritesTo(addr uint16) []Write {
	var out []Write
	for _, w := range b.writes {
		if w.Addr == addr {
			out = append(out, w)
		}
	}
	return out
}

// ResetWrites clears the register write log.
func (b *Board) ResetWrites() {
	b.writes = b.writes[:0]
}

// Advance runs the board for the given number of CPU cycles. Time moves from
// one timer event to the next so long idle stretches cost nothing.
func (b *Board) Advance(cycles uint64) {
	for cycles > 0 {
		step := cycles
		for _, t := range b.timers {
			if c, ok := t.cyclesToEvent(); ok && c < step {
				step = c
			}
		}
		for _, t := range b.timers {
			t.advance(step)
		}
		b.cycle += step
		cycles -= step
		b.service()
	}
}

// AdvanceMicros runs the board for us microseconds.
func (b *Board) AdvanceMicros(us uint32) {
	b.Advance(uint64(us) * (atmega.CPUFrequency / 1000000))
}

// service runs pending vectors while SREG.I is set. Vectors do not nest:
// a store made by a running vector never starts another one.
func (b *Board) service() {
	if b.servicing || b.dispatch == nil {
		return
	}
	b.servicing = true
	defer func() { b.servicing = false }()

	for b.mem[atmega.SREG]&atmega.SREG_I != 0 {
		v, ok := b.nextPending()
		if !ok {
			return
		}
		b.acknowledge(v)
		b.mem[atmega.SREG] &^= atmega.SREG_I
		b.dispatch(v)
		b.mem[atmega.SREG] |= atmega.SREG_I
	}
}

type source struct {
	vector atmega.Vector
	mask   uint16
	flag   uint16
	bit    uint8
}

// sources in priority order
var sources = []source{
	{atmega.VectorINT0, atmega.EIMSK, atmega.EIFR, atmega.INTF0},
	{atmega.VectorINT1, atmega.EIMSK, atmega.EIFR, atmega.INTF1},
	{atmega.VectorPCINT0, atmega.PCICR, atmega.PCIFR, atmega.PCIE0},
	{atmega.VectorPCINT1, atmega.PCICR, atmega.PCIFR, atmega.PCIE1},
	{atmega.VectorPCINT2, atmega.PCICR, atmega.PCIFR, atmega.PCIE2},
	{atmega.VectorTimer2CompA, atmega.TIMSK2, atmega.TIFR2, atmega.OCFA},
	{atmega.VectorTimer2CompB, atmega.TIMSK2, atmega.TIFR2, atmega.OCFB},
	{atmega.VectorTimer2Ovf, atmega.TIMSK2, atmega.TIFR2, atmega.TOV},
	{atmega.VectorTimer1CompA, atmega.TIMSK1, atmega.TIFR1, atmega.OCFA},
	{atmega.VectorTimer1CompB, atmega.TIMSK1, atmega.TIFR1, atmega.OCFB},
	{atmega.VectorTimer1Ovf, atmega.TIMSK1, atmega.TIFR1, atmega.TOV},
	{atmega.VectorTimer0CompA, atmega.TIMSK0, atmega.TIFR0, atmega.OCFA},
	{atmega.VectorTimer0CompB, atmega.TIMSK0, atmega.TIFR0, atmega.OCFB},
	{atmega.VectorTimer0Ovf, atmega.TIMSK0, atmega.TIFR0, atmega.TOV},
}

// The enable bit sits at the same position as the flag bit for every source
// above (INTn/INTFn, PCIEn/PCIFn, OCIEnx/OCFnx, TOIEn/TOVn).
func (b *Board) nextPending() (atmega.Vector, bool) {
	for _, s := range sources {
		if b.mem[s.mask]&s.bit != 0 && b.mem[s.flag]&s.bit != 0 {
			return s.vector, true
		}
	}
	return 0, false
}

func (b *Board) acknowledge(v atmega.Vector) {
	for _, s := range sources {
		if s.vector == v {
			b.mem[s.flag] &^= s.bit
			return
		}
	}
}
