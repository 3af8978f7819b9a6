package core

import "unohal/atmega"

// HandleInterrupt runs the body of an interrupt vector. The board's vector
// table and the simulator both call it with interrupts disabled.
func HandleInterrupt(v atmega.Vector) {
	switch v {
	case atmega.VectorINT0:
		dispatchExternal(Int0)
	case atmega.VectorINT1:
		dispatchExternal(Int1)
	case atmega.VectorPCINT0:
		dispatchPinChange(0)
	case atmega.VectorPCINT1:
		dispatchPinChange(1)
	case atmega.VectorPCINT2:
		dispatchPinChange(2)
	case atmega.VectorTimer2CompA:
		timer2CompareA()
	case atmega.VectorTimer1CompA:
		timer1CompareA()
	case atmega.VectorTimer0Ovf:
		timer0Overflow()
	}
}
