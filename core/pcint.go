// Pin change interrupts, three banks of up to eight pins each
package core

import "unohal/atmega"

// PinChangeBanks is the number of pin change banks: 0 is D8-D13 (port B),
// 1 is A0-A5 (port C), 2 is D0-D7 (port D).
const PinChangeBanks = 3

var pcintHandlers [PinChangeBanks]InterruptHandler

// AttachPinChange adds pin to its bank's mask and installs handler for the
// whole bank. Every pin of a bank shares one handler, which has to read the
// port to find out what changed.
func AttachPinChange(pin uint8, handler InterruptHandler) error {
	bank, pcmsk, bit, ok := atmega.PinChangeBank(pin)
	if !ok {
		return ErrInvalidPin
	}
	if handler == nil {
		return ErrNilHandler
	}

	state := disableInterrupts()
	pcintHandlers[bank] = handler
	regSetBits(pcmsk, 1<<bit)
	regSet(atmega.PCIFR, 1<<bank)
	regSetBits(atmega.PCICR, 1<<bank)
	restoreInterrupts(state)

	enableInterrupts()
	return nil
}

// DetachPinChange removes pin from its bank's mask. The bank is disabled and
// its handler dropped once no pin is left in the mask.
func DetachPinChange(pin uint8) error {
	bank, pcmsk, bit, ok := atmega.PinChangeBank(pin)
	if !ok {
		return ErrInvalidPin
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)
	regClearBits(pcmsk, 1<<bit)
	if regGet(pcmsk) == 0 {
		regClearBits(atmega.PCICR, 1<<bank)
		pcintHandlers[bank] = nil
	}
	return nil
}

// EnablePinChangeBank replaces a bank's mask and handler in one go.
func EnablePinChangeBank(bank uint8, mask uint8, handler InterruptHandler) error {
	if bank >= PinChangeBanks {
		return ErrInvalidSource
	}
	if handler == nil {
		return ErrNilHandler
	}

	state := disableInterrupts()
	pcintHandlers[bank] = handler
	regSet(atmega.BankMaskRegister(bank), mask)
	regSet(atmega.PCIFR, 1<<bank)
	regSetBits(atmega.PCICR, 1<<bank)
	restoreInterrupts(state)

	enableInterrupts()
	return nil
}

// DisablePinChangeBank clears a bank's mask, enable bit and handler.
func DisablePinChangeBank(bank uint8) error {
	if bank >= PinChangeBanks {
		return ErrInvalidSource
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	regSet(atmega.BankMaskRegister(bank), 0)
	regClearBits(atmega.PCICR, 1<<bank)
	pcintHandlers[bank] = nil
	return nil
}

func dispatchPinChange(bank uint8) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	if h := pcintHandlers[bank]; h != nil {
		RecordTiming(EvtPinChange, bank, sysClock.Millis(), uint32(regGet(atmega.BankMaskRegister(bank))), 0)
		h()
	}
}
