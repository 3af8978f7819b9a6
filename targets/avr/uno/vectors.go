//go:build tinygo && avr

package uno

import (
	"device/avr"
	"runtime/interrupt"

	"unohal/atmega"
	"unohal/core"
)

// installVectors wires the vectors the HAL uses to core.HandleInterrupt.
// TinyGo needs each handler as a literal, so there is one call per vector.
func installVectors() {
	interrupt.New(avr.IRQ_INT0, func(interrupt.Interrupt) { core.HandleInterrupt(atmega.VectorINT0) })
	interrupt.New(avr.IRQ_INT1, func(interrupt.Interrupt) { core.HandleInterrupt(atmega.VectorINT1) })
	interrupt.New(avr.IRQ_PCINT0, func(interrupt.Interrupt) { core.HandleInterrupt(atmega.VectorPCINT0) })
	interrupt.New(avr.IRQ_PCINT1, func(interrupt.Interrupt) { core.HandleInterrupt(atmega.VectorPCINT1) })
	interrupt.New(avr.IRQ_PCINT2, func(interrupt.Interrupt) { core.HandleInterrupt(atmega.VectorPCINT2) })
	interrupt.New(avr.IRQ_TIMER2_COMPA, func(interrupt.Interrupt) { core.HandleInterrupt(atmega.VectorTimer2CompA) })
	interrupt.New(avr.IRQ_TIMER1_COMPA, func(interrupt.Interrupt) { core.HandleInterrupt(atmega.VectorTimer1CompA) })
	interrupt.New(avr.IRQ_TIMER0_OVF, func(interrupt.Interrupt) { core.HandleInterrupt(atmega.VectorTimer0Ovf) })
}
