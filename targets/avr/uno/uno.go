//go:build tinygo && avr

// Package uno binds the HAL in package core to the ATmega328P of an Arduino
// Uno: registers are accessed in place and the hardware vectors call
// core.HandleInterrupt.
package uno

import "unohal/core"

// Init installs the register bus and the vectors, then takes the board.
// Call it once, before any other core function.
func Init() *core.Peripherals {
	core.SetRegisterBus(volatileBus{})
	installVectors()
	p, ok := core.Take()
	if !ok {
		panic("uno: board already taken")
	}
	return p
}
