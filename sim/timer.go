package sim

import "unohal/atmega"

// timer models one counter unit. Its state lives in the board's register
// file; the struct only knows where.
type timer struct {
	b *Board

	tccrA, tccrB uint16
	tcnt         uint16
	ocrA, ocrB   uint16
	timsk, tifr  uint16
	clock        []atmega.ClockSelect
	wide         bool

	acc uint64 // CPU cycles since the last counter tick
}

func (t *timer) read(addr uint16) uint16 {
	v := uint16(t.b.mem[addr])
	if t.wide {
		v |= uint16(t.b.mem[addr+1]) << 8
	}
	return v
}

func (t *timer) count() uint16 {
	return t.read(t.tcnt)
}

func (t *timer) setCount(v uint16) {
	t.b.mem[t.tcnt] = uint8(v)
	if t.wide {
		t.b.mem[t.tcnt+1] = uint8(v >> 8)
	}
}

func (t *timer) max() uint16 {
	if t.wide {
		return 0xFFFF
	}
	return 0xFF
}

func (t *timer) divisor() uint64 {
	return uint64(atmega.DivisorFor(t.clock, t.b.mem[t.tccrB]))
}

// wgm returns the waveform generation mode number from the datasheet tables.
func (t *timer) wgm() uint8 {
	a := t.b.mem[t.tccrA] & (atmega.WGMn0 | atmega.WGMn1)
	hi := t.b.mem[t.tccrB] & atmega.WGMn2
	if t.wide {
		hi |= t.b.mem[t.tccrB] & atmega.WGM13
	}
	return a | hi>>1
}

func (t *timer) ctc() bool {
	m := t.wgm()
	if t.wide {
		return m == 4 || m == 12
	}
	return m == 2
}

func (t *timer) top() uint16 {
	m := t.wgm()
	if !t.wide {
		switch m {
		case 2, 5, 7:
			return t.read(t.ocrA)
		case 1, 3:
			return 0xFF
		}
		return 0xFF
	}
	switch m {
	case 1, 5:
		return 0x00FF
	case 2, 6:
		return 0x01FF
	case 3, 7:
		return 0x03FF
	case 4, 9, 11, 15:
		return t.read(t.ocrA)
	case 8, 10, 12, 14:
		return t.read(atmega.ICR1L)
	}
	return 0xFFFF
}

// limit is where the counter wraps from its current position. A counter
// that is already past TOP runs on to MAX first, as on the chip.
func (t *timer) limit(c, top uint16) uint16 {
	if c > top {
		return t.max()
	}
	return top
}

// ticksToEvent returns the number of counter ticks until the next flag.
func (t *timer) ticksToEvent() uint64 {
	c := t.count()
	top := t.top()
	lim := t.limit(c, top)
	d := uint64(lim-c) + 1
	for _, ocr := range [2]uint16{t.read(t.ocrA), t.read(t.ocrB)} {
		var x uint64
		switch {
		case ocr > c && ocr <= lim:
			x = uint64(ocr - c)
		case ocr <= top:
			x = uint64(lim-c) + 1 + uint64(ocr)
		default:
			continue
		}
		if x < d {
			d = x
		}
	}
	return d
}

func (t *timer) cyclesToEvent() (uint64, bool) {
	div := t.divisor()
	if div == 0 {
		return 0, false
	}
	return t.ticksToEvent()*div - t.acc, true
}

func (t *timer) advance(cycles uint64) {
	div := t.divisor()
	if div == 0 {
		return
	}
	t.acc += cycles
	n := t.acc / div
	t.acc %= div
	if n == 0 {
		return
	}
	// n never exceeds ticksToEvent, so only the last tick can wrap or match
	if n > 1 {
		t.setCount(t.count() + uint16(n-1))
	}
	t.tick()
}

func (t *timer) tick() {
	c := t.count()
	top := t.top()
	lim := t.limit(c, top)
	if c == lim {
		c = 0
		if !t.ctc() || lim == t.max() {
			t.b.mem[t.tifr] |= atmega.TOV
		}
	} else {
		c++
	}
	t.setCount(c)
	if c == t.read(t.ocrA) {
		t.b.mem[t.tifr] |= atmega.OCFA
	}
	if c == t.read(t.ocrB) {
		t.b.mem[t.tifr] |= atmega.OCFB
	}
}
