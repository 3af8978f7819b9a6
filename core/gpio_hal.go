package core

import "unohal/atmega"

// GPIOPin identifies an Arduino pin: D0-D13 are 0..13, A0-A5 are 14..19.
type GPIOPin uint8

// GPIODriver is the abstract GPIO interface that core code uses.
// PortDriver drives the ATmega ports; tests may swap in a mock.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInput configures a pin as a floating digital input
	ConfigureInput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)

	// TogglePin inverts an output pin
	TogglePin(pin GPIOPin) error
}

// Global singleton used by core code.
var gpioDriver GPIODriver = PortDriver{}

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}

// pinLoc is the port register set and bit mask of a pin.
type pinLoc struct {
	regs atmega.PortRegs
	mask uint8
}

func locate(pin GPIOPin) (pinLoc, error) {
	port, bit, ok := atmega.PinLocation(uint8(pin))
	if !ok {
		return pinLoc{}, ErrInvalidPin
	}
	return pinLoc{regs: port.Regs(), mask: 1 << bit}, nil
}

// write drives the pin. Callers that may be preempted hold interrupts off:
// the servo and tone vectors modify the same PORT registers.
func (l pinLoc) write(high bool) {
	if high {
		regSetBits(l.regs.PORT, l.mask)
	} else {
		regClearBits(l.regs.PORT, l.mask)
	}
}

// toggle flips the PORT bit with a single store to PIN.
func (l pinLoc) toggle() {
	regSet(l.regs.PIN, l.mask)
}

func (l pinLoc) read() bool {
	return regGet(l.regs.PIN)&l.mask != 0
}

// PortDriver implements GPIODriver on the ATmega DDR/PORT/PIN registers.
type PortDriver struct{}

func (PortDriver) ConfigureOutput(pin GPIOPin) error {
	loc, err := locate(pin)
	if err != nil {
		return err
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	regSetBits(loc.regs.DDR, loc.mask)
	return nil
}

func (PortDriver) ConfigureInput(pin GPIOPin) error {
	loc, err := locate(pin)
	if err != nil {
		return err
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	regClearBits(loc.regs.DDR, loc.mask)
	regClearBits(loc.regs.PORT, loc.mask)
	return nil
}

func (PortDriver) ConfigureInputPullUp(pin GPIOPin) error {
	loc, err := locate(pin)
	if err != nil {
		return err
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	regClearBits(loc.regs.DDR, loc.mask)
	regSetBits(loc.regs.PORT, loc.mask)
	return nil
}

func (PortDriver) SetPin(pin GPIOPin, value bool) error {
	loc, err := locate(pin)
	if err != nil {
		return err
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	loc.write(value)
	return nil
}

func (PortDriver) GetPin(pin GPIOPin) (bool, error) {
	loc, err := locate(pin)
	if err != nil {
		return false, err
	}
	return loc.read(), nil
}

func (PortDriver) TogglePin(pin GPIOPin) error {
	loc, err := locate(pin)
	if err != nil {
		return err
	}
	loc.toggle()
	return nil
}
