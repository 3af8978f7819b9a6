//go:build !(tinygo && avr)

package core

import "unohal/atmega"

// State holds the SREG.I bit saved by disableInterrupts
type State uint8

// disableInterrupts clears SREG.I on the register bus and returns its previous value
func disableInterrupts() State {
	bus := MustBus()
	sreg := bus.Load(atmega.SREG)
	if sreg&atmega.SREG_I != 0 {
		bus.Store(atmega.SREG, sreg&^atmega.SREG_I)
	}
	return State(sreg & atmega.SREG_I)
}

// restoreInterrupts sets SREG.I again only if it was set before
func restoreInterrupts(state State) {
	if state == 0 {
		return
	}
	bus := MustBus()
	bus.Store(atmega.SREG, bus.Load(atmega.SREG)|atmega.SREG_I)
}

// enableInterrupts is the sei instruction
func enableInterrupts() {
	bus := MustBus()
	bus.Store(atmega.SREG, bus.Load(atmega.SREG)|atmega.SREG_I)
}
