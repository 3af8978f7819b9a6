package sim

import "unohal/atmega"

// Drive forces an input pin to a level from outside the chip. It has no
// effect on the pin level while the pin is configured as an output.
func (b *Board) Drive(pin uint8, high bool) {
	if pin >= atmega.NumPins {
		return
	}
	if high {
		b.drive[pin] = 1
	} else {
		b.drive[pin] = 0
	}
	b.updateLevels()
	b.service()
}

// Release stops driving a pin; a floating input reads its pull-up state.
func (b *Board) Release(pin uint8) {
	if pin >= atmega.NumPins {
		return
	}
	b.drive[pin] = -1
	b.updateLevels()
	b.service()
}

// Level returns the current level of a pin.
func (b *Board) Level(pin uint8) bool {
	if pin >= atmega.NumPins {
		return false
	}
	return b.levels[pin]
}

// Trace returns every pin level change since the last ResetTrace.
func (b *Board) Trace() []PinEvent {
	return b.trace
}

// PinTrace returns the level changes of one pin.
func (b *Board) PinTrace(pin uint8) []PinEvent {
	var out []PinEvent
	for _, e := range b.trace {
		if e.Pin == pin {
			out = append(out, e)
		}
	}
	return out
}

// ResetTrace clears the pin edge trace.
func (b *Board) ResetTrace() {
	b.trace = b.trace[:0]
}

func (b *Board) level(pin uint8) bool {
	port, bit, _ := atmega.PinLocation(pin)
	r := port.Regs()
	mask := uint8(1) << bit
	if b.mem[r.DDR]&mask != 0 {
		return b.mem[r.PORT]&mask != 0
	}
	if d := b.drive[pin]; d >= 0 {
		return d == 1
	}
	// floating input: pulled up when PORT is set, otherwise reads low
	return b.mem[r.PORT]&mask != 0
}

func (b *Board) pinRegister(port atmega.Port) uint8 {
	var v uint8
	for bit := uint8(0); bit < 8; bit++ {
		pin, ok := atmega.PinAt(port, bit)
		if ok && b.levels[pin] {
			v |= 1 << bit
		}
	}
	return v
}

func (b *Board) updateLevels() {
	for pin := uint8(0); pin < atmega.NumPins; pin++ {
		now := b.level(pin)
		if now == b.levels[pin] {
			continue
		}
		b.levels[pin] = now
		b.trace = append(b.trace, PinEvent{Pin: pin, High: now, Cycle: b.cycle})
		b.edge(pin, now)
	}
}

// edge latches the external and pin change interrupt flags for a level
// change. The low-level sense mode is approximated by a flag on the falling
// edge.
func (b *Board) edge(pin uint8, high bool) {
	ext := -1
	switch pin {
	case 2:
		ext = 0
	case 3:
		ext = 1
	}
	if ext >= 0 {
		sense := (b.mem[atmega.EICRA] >> (2 * ext)) & 0x03
		fire := false
		switch sense {
		case 0:
			fire = !high
		case 1:
			fire = true
		case 2:
			fire = !high
		case 3:
			fire = high
		}
		if fire {
			b.mem[atmega.EIFR] |= 1 << ext
		}
	}

	bank, pcmsk, bit, ok := atmega.PinChangeBank(pin)
	if ok && b.mem[pcmsk]&(1<<bit) != 0 {
		b.mem[atmega.PCIFR] |= 1 << bank
	}
}
