package atmega

// ClockSelect maps a prescaler divisor to the CSn2:0 bits of one timer.
type ClockSelect struct {
	Bits    uint8
	Divisor uint16
}

// Timer0 and Timer1 share the same clock select encoding.
var ClockSelect01 = []ClockSelect{
	{Bits: 0b001, Divisor: 1},
	{Bits: 0b010, Divisor: 8},
	{Bits: 0b011, Divisor: 64},
	{Bits: 0b100, Divisor: 256},
	{Bits: 0b101, Divisor: 1024},
}

// Timer2 has the asynchronous prescaler with two extra taps.
var ClockSelect2 = []ClockSelect{
	{Bits: 0b001, Divisor: 1},
	{Bits: 0b010, Divisor: 8},
	{Bits: 0b011, Divisor: 32},
	{Bits: 0b100, Divisor: 64},
	{Bits: 0b101, Divisor: 128},
	{Bits: 0b110, Divisor: 256},
	{Bits: 0b111, Divisor: 1024},
}

// DivisorFor returns the divisor selected by clock select bits, or 0 when the
// timer is stopped or clocked externally.
func DivisorFor(table []ClockSelect, bits uint8) uint16 {
	bits &= CSMask
	for _, cs := range table {
		if cs.Bits == bits {
			return cs.Divisor
		}
	}
	return 0
}

// BitsFor returns the clock select bits for a divisor.
func BitsFor(table []ClockSelect, divisor uint16) (uint8, bool) {
	for _, cs := range table {
		if cs.Divisor == divisor {
			return cs.Bits, true
		}
	}
	return 0, false
}
