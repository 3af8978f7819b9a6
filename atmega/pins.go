package atmega

// NumPins is the number of Arduino pins: D0-D13 followed by A0-A5.
const NumPins = 20

// Arduino pin numbers with a special role.
const (
	PinA0  uint8 = 14
	PinLED uint8 = 13
)

// Port is one of the three 8-bit GPIO ports.
type Port uint8

const (
	PortB Port = iota
	PortC
	PortD
)

// PortRegs holds the three registers of a GPIO port.
type PortRegs struct {
	PIN  uint16
	DDR  uint16
	PORT uint16
}

var portRegs = [3]PortRegs{
	PortB: {PIN: PINB, DDR: DDRB, PORT: PORTB},
	PortC: {PIN: PINC, DDR: DDRC, PORT: PORTC},
	PortD: {PIN: PIND, DDR: DDRD, PORT: PORTD},
}

// Regs returns the register addresses of the port.
func (p Port) Regs() PortRegs {
	return portRegs[p]
}

// PinLocation maps an Arduino pin to its port and bit. ok is false for pins
// outside 0..NumPins-1.
func PinLocation(pin uint8) (port Port, bit uint8, ok bool) {
	switch {
	case pin <= 7:
		return PortD, pin, true
	case pin <= 13:
		return PortB, pin - 8, true
	case pin < NumPins:
		return PortC, pin - 14, true
	}
	return 0, 0, false
}

// PinAt is the inverse of PinLocation.
func PinAt(port Port, bit uint8) (uint8, bool) {
	switch port {
	case PortD:
		if bit <= 7 {
			return bit, true
		}
	case PortB:
		if bit <= 5 {
			return bit + 8, true
		}
	case PortC:
		if bit <= 5 {
			return bit + 14, true
		}
	}
	return 0, false
}

// PinChangeBank returns the pin change interrupt bank (0: port B, 1: port C,
// 2: port D), the PCMSK register that covers the pin and the pin's bit in it.
func PinChangeBank(pin uint8) (bank uint8, pcmsk uint16, bit uint8, ok bool) {
	port, bit, ok := PinLocation(pin)
	if !ok {
		return 0, 0, 0, false
	}
	switch port {
	case PortB:
		return 0, PCMSK0, bit, true
	case PortC:
		return 1, PCMSK1, bit, true
	default:
		return 2, PCMSK2, bit, true
	}
}

// BankPort is the port behind a pin change bank.
func BankPort(bank uint8) Port {
	switch bank {
	case 0:
		return PortB
	case 1:
		return PortC
	}
	return PortD
}

// BankMaskRegister returns the PCMSK register of a bank.
func BankMaskRegister(bank uint8) uint16 {
	return PCMSK0 + uint16(bank)
}
