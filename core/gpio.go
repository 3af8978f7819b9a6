// Digital I/O: Arduino-style free functions and the Pin state object handed
// out by Peripherals.
package core

// IOMode is the direction of a pin as set by PinMode.
type IOMode uint8

const (
	Input IOMode = iota
	InputPullUp
	Output
)

// PinMode configures the direction of a pin.
func PinMode(pin uint8, mode IOMode) error {
	switch mode {
	case Input:
		return MustGPIO().ConfigureInput(GPIOPin(pin))
	case InputPullUp:
		return MustGPIO().ConfigureInputPullUp(GPIOPin(pin))
	case Output:
		return MustGPIO().ConfigureOutput(GPIOPin(pin))
	}
	return ErrWrongMode
}

// DigitalRead returns the level of a pin.
func DigitalRead(pin uint8) (bool, error) {
	return MustGPIO().GetPin(GPIOPin(pin))
}

// DigitalWrite drives a pin. On an input it switches the pull-up, as on the chip.
func DigitalWrite(pin uint8, high bool) error {
	return MustGPIO().SetPin(GPIOPin(pin), high)
}

// DigitalToggle inverts a pin.
func DigitalToggle(pin uint8) error {
	return MustGPIO().TogglePin(GPIOPin(pin))
}

// pinState is the mode a Pin is currently in
type pinState uint8

const (
	stateInput pinState = iota
	statePullUp
	stateOutput
	statePWM
)

func (s pinState) String() string {
	switch s {
	case stateInput:
		return "input"
	case statePullUp:
		return "pull-up input"
	case stateOutput:
		return "output"
	case statePWM:
		return "pwm"
	}
	return "unknown"
}

// Pin is a single Arduino pin owned by the caller. Operations that need a
// particular mode return ErrWrongMode instead of writing the wrong register.
// A Pin starts as a floating input, the reset state of the chip.
type Pin struct {
	id    uint8
	state pinState
}

// Number returns the Arduino pin number.
func (p *Pin) Number() uint8 {
	return p.id
}

// Mode describes the current mode.
func (p *Pin) Mode() string {
	return p.state.String()
}

// IsOutput reports whether the pin is a digital output.
func (p *Pin) IsOutput() bool {
	return p.state == stateOutput
}

// IntoOutput makes the pin a digital output. A pin in PWM mode is first
// detached from its timer channel.
func (p *Pin) IntoOutput() error {
	if p.state == statePWM {
		if err := MustPWM().DisablePWM(GPIOPin(p.id)); err != nil {
			return err
		}
	}
	if err := MustGPIO().ConfigureOutput(GPIOPin(p.id)); err != nil {
		return err
	}
	p.state = stateOutput
	return nil
}

// IntoInput makes the pin a floating input.
func (p *Pin) IntoInput() error {
	if p.state == statePWM {
		return ErrWrongMode
	}
	if err := MustGPIO().ConfigureInput(GPIOPin(p.id)); err != nil {
		return err
	}
	p.state = stateInput
	return nil
}

// IntoPullUpInput makes the pin an input with the internal pull-up enabled.
func (p *Pin) IntoPullUpInput() error {
	if p.state == statePWM {
		return ErrWrongMode
	}
	if err := MustGPIO().ConfigureInputPullUp(GPIOPin(p.id)); err != nil {
		return err
	}
	p.state = statePullUp
	return nil
}

// Set drives an output pin.
func (p *Pin) Set(high bool) error {
	if p.state != stateOutput {
		return ErrWrongMode
	}
	return MustGPIO().SetPin(GPIOPin(p.id), high)
}

// High drives an output pin high.
func (p *Pin) High() error {
	return p.Set(true)
}

// Low drives an output pin low.
func (p *Pin) Low() error {
	return p.Set(false)
}

// Toggle inverts an output pin.
func (p *Pin) Toggle() error {
	if p.state != stateOutput {
		return ErrWrongMode
	}
	return MustGPIO().TogglePin(GPIOPin(p.id))
}

// Read returns the pin level in any mode.
func (p *Pin) Read() (bool, error) {
	return MustGPIO().GetPin(GPIOPin(p.id))
}
