package atmega

// Vector is an interrupt vector number. Lower numbers have higher priority.
type Vector uint8

const (
	VectorINT0        Vector = 1
	VectorINT1        Vector = 2
	VectorPCINT0      Vector = 3
	VectorPCINT1      Vector = 4
	VectorPCINT2      Vector = 5
	VectorWDT         Vector = 6
	VectorTimer2CompA Vector = 7
	VectorTimer2CompB Vector = 8
	VectorTimer2Ovf   Vector = 9
	VectorTimer1Capt  Vector = 10
	VectorTimer1CompA Vector = 11
	VectorTimer1CompB Vector = 12
	VectorTimer1Ovf   Vector = 13
	VectorTimer0CompA Vector = 14
	VectorTimer0CompB Vector = 15
	VectorTimer0Ovf   Vector = 16
)

func (v Vector) String() string {
	switch v {
	case VectorINT0:
		return "INT0"
	case VectorINT1:
		return "INT1"
	case VectorPCINT0:
		return "PCINT0"
	case VectorPCINT1:
		return "PCINT1"
	case VectorPCINT2:
		return "PCINT2"
	case VectorWDT:
		return "WDT"
	case VectorTimer2CompA:
		return "TIMER2_COMPA"
	case VectorTimer2CompB:
		return "TIMER2_COMPB"
	case VectorTimer2Ovf:
		return "TIMER2_OVF"
	case VectorTimer1Capt:
		return "TIMER1_CAPT"
	case VectorTimer1CompA:
		return "TIMER1_COMPA"
	case VectorTimer1CompB:
		return "TIMER1_COMPB"
	case VectorTimer1Ovf:
		return "TIMER1_OVF"
	case VectorTimer0CompA:
		return "TIMER0_COMPA"
	case VectorTimer0CompB:
		return "TIMER0_COMPB"
	case VectorTimer0Ovf:
		return "TIMER0_OVF"
	}
	return "UNKNOWN"
}
