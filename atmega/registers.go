// Package atmega describes the ATmega328P as seen from the Arduino Uno:
// register addresses in data space, bit positions, clock select tables,
// interrupt vectors and the Arduino pin map.
package atmega

// CPUFrequency is the fixed system clock of the board in Hz.
const CPUFrequency = 16000000

// Data-space addresses of the I/O registers used by the HAL.
const (
	PINB  uint16 = 0x23
	DDRB  uint16 = 0x24
	PORTB uint16 = 0x25
	PINC  uint16 = 0x26
	DDRC  uint16 = 0x27
	PORTC uint16 = 0x28
	PIND  uint16 = 0x29
	DDRD  uint16 = 0x2A
	PORTD uint16 = 0x2B

	TIFR0 uint16 = 0x35
	TIFR1 uint16 = 0x36
	TIFR2 uint16 = 0x37
	PCIFR uint16 = 0x3B
	EIFR  uint16 = 0x3C
	EIMSK uint16 = 0x3D

	TCCR0A uint16 = 0x44
	TCCR0B uint16 = 0x45
	TCNT0  uint16 = 0x46
	OCR0A  uint16 = 0x47
	OCR0B  uint16 = 0x48

	SREG uint16 = 0x5F

	PCICR  uint16 = 0x68
	EICRA  uint16 = 0x69
	PCMSK0 uint16 = 0x6B
	PCMSK1 uint16 = 0x6C
	PCMSK2 uint16 = 0x6D
	TIMSK0 uint16 = 0x6E
	TIMSK1 uint16 = 0x6F
	TIMSK2 uint16 = 0x70

	TCCR1A uint16 = 0x80
	TCCR1B uint16 = 0x81
	TCCR1C uint16 = 0x82
	TCNT1L uint16 = 0x84
	TCNT1H uint16 = 0x85
	ICR1L  uint16 = 0x86
	ICR1H  uint16 = 0x87
	OCR1AL uint16 = 0x88
	OCR1AH uint16 = 0x89
	OCR1BL uint16 = 0x8A
	OCR1BH uint16 = 0x8B

	TCCR2A uint16 = 0xB0
	TCCR2B uint16 = 0xB1
	TCNT2  uint16 = 0xB2
	OCR2A  uint16 = 0xB3
	OCR2B  uint16 = 0xB4
)

// SREG bits
const (
	SREG_I uint8 = 1 << 7 // global interrupt enable
)

// TCCRnA bits (same layout on all three timers)
const (
	WGMn0  uint8 = 1 << 0
	WGMn1  uint8 = 1 << 1
	COMnB0 uint8 = 1 << 4
	COMnB1 uint8 = 1 << 5
	COMnA0 uint8 = 1 << 6
	COMnA1 uint8 = 1 << 7
)

// TCCRnB bits
const (
	CSMask uint8 = 0x07
	WGMn2  uint8 = 1 << 3
	WGM13  uint8 = 1 << 4 // Timer1 only
)

// TCCR1C bits
const (
	FOC1B uint8 = 1 << 6
	FOC1A uint8 = 1 << 7
)

// TIMSKn / TIFRn bits
const (
	TOIE  uint8 = 1 << 0
	OCIEA uint8 = 1 << 1
	OCIEB uint8 = 1 << 2

	TOV  uint8 = 1 << 0
	OCFA uint8 = 1 << 1
	OCFB uint8 = 1 << 2
)

// External interrupt bits. EICRA holds two sense-control bits per source.
const (
	ISC00 = 0
	ISC10 = 2

	INT0 uint8 = 1 << 0
	INT1 uint8 = 1 << 1

	INTF0 uint8 = 1 << 0
	INTF1 uint8 = 1 << 1
)

// Pin change bits
const (
	PCIE0 uint8 = 1 << 0
	PCIE1 uint8 = 1 << 1
	PCIE2 uint8 = 1 << 2
)
