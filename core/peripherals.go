package core

import "unohal/atmega"

// Peripherals is the board handed out once by Take.
type Peripherals struct {
	pins  [atmega.NumPins]Pin
	taken [atmega.NumPins]bool
}

var peripheralsTaken bool

// Take returns the board the first time it is called and nil, false on every
// later call. The first call also starts the monotonic clock.
func Take() (*Peripherals, bool) {
	state := disableInterrupts()
	if peripheralsTaken {
		restoreInterrupts(state)
		return nil, false
	}
	peripheralsTaken = true
	restoreInterrupts(state)

	p := &Peripherals{}
	for i := range p.pins {
		p.pins[i] = Pin{id: uint8(i), state: stateInput}
	}
	InitClock()
	return p, true
}

// Pin hands out an Arduino pin. Each pin can be taken once.
func (p *Peripherals) Pin(n uint8) (*Pin, error) {
	if n >= atmega.NumPins || p.taken[n] {
		return nil, ErrInvalidPin
	}
	p.taken[n] = true
	return &p.pins[n], nil
}

// D returns digital pin n and panics if it is out of range or already taken.
func (p *Peripherals) D(n uint8) *Pin {
	pin, err := p.Pin(n)
	if err != nil {
		panic("pin D" + utoa(uint32(n)) + " not available")
	}
	return pin
}

// A returns analog pin An (A0 = 14) and panics if it is out of range or
// already taken.
func (p *Peripherals) A(n uint8) *Pin {
	pin, err := p.Pin(atmega.PinA0 + n)
	if err != nil {
		panic("pin A" + utoa(uint32(n)) + " not available")
	}
	return pin
}
