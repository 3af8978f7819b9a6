// External interrupts INT0 (D2) and INT1 (D3)
package core

import "unohal/atmega"

// ExternalInterrupt is one of the two external interrupt sources.
type ExternalInterrupt uint8

const (
	Int0 ExternalInterrupt = iota // D2
	Int1                          // D3
)

// Trigger is the sense condition of an external interrupt. The values are
// the ISCn1:0 bit patterns.
type Trigger uint8

const (
	TriggerLow     Trigger = 0b00
	TriggerChange  Trigger = 0b01
	TriggerFalling Trigger = 0b10
	TriggerRising  Trigger = 0b11
)

func (t Trigger) String() string {
	switch t {
	case TriggerLow:
		return "low"
	case TriggerChange:
		return "change"
	case TriggerFalling:
		return "falling"
	case TriggerRising:
		return "rising"
	}
	return "invalid"
}

// InterruptHandler runs inside the vector with interrupts disabled and must
// return quickly.
type InterruptHandler func()

var extHandlers [2]InterruptHandler

// InterruptForPin maps an Arduino pin to its external interrupt.
func InterruptForPin(pin uint8) (ExternalInterrupt, bool) {
	switch pin {
	case 2:
		return Int0, true
	case 3:
		return Int1, true
	}
	return 0, false
}

// AttachInterrupt installs handler for src, replacing any previous one,
// programs the trigger, clears a stale flag so a condition that was already
// true does not fire at once, enables the source and then enables
// interrupts globally.
func AttachInterrupt(src ExternalInterrupt, trigger Trigger, handler InterruptHandler) error {
	if src > Int1 {
		return ErrInvalidSource
	}
	if trigger > TriggerRising {
		return ErrInvalidTrigger
	}
	if handler == nil {
		return ErrNilHandler
	}

	shift := uint8(atmega.ISC00)
	if src == Int1 {
		shift = atmega.ISC10
	}
	bit := uint8(1) << src

	state := disableInterrupts()
	extHandlers[src] = handler
	regModify(atmega.EICRA, 0b11<<shift, uint8(trigger)<<shift)
	regSet(atmega.EIFR, bit)
	regSetBits(atmega.EIMSK, bit)
	restoreInterrupts(state)

	enableInterrupts()
	return nil
}

// DetachInterrupt removes the handler and disables the source. Global
// interrupts stay enabled for the other sources.
func DetachInterrupt(src ExternalInterrupt) error {
	if src > Int1 {
		return ErrInvalidSource
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	extHandlers[src] = nil
	regClearBits(atmega.EIMSK, uint8(1)<<src)
	return nil
}

// InterruptAttached reports whether src has a handler.
func InterruptAttached(src ExternalInterrupt) bool {
	if src > Int1 {
		return false
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return extHandlers[src] != nil
}

func dispatchExternal(src ExternalInterrupt) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	if h := extHandlers[src]; h != nil {
		RecordTiming(EvtExternal, uint8(src), sysClock.Millis(), 0, 0)
		h()
	}
}
