// PWM (Pulse Width Modulation) on the six timer compare outputs
package core

import "unohal/atmega"

// PWMPreset selects the timer clock divisor of a PWM output. The counter
// always runs the full 8-bit range, so the preset trades frequency only.
type PWMPreset uint8

const (
	PWMDiv64 PWMPreset = iota // 976 Hz, Timer0's rate while it keeps time
	PWMDiv8                   // 7.8 kHz
	PWMDiv1                   // 62.5 kHz
)

// Prescaler returns the timer divisor of the preset.
func (p PWMPreset) Prescaler() Prescaler {
	switch p {
	case PWMDiv8:
		return Prescale8
	case PWMDiv1:
		return Prescale1
	}
	return Prescale64
}

// Frequency returns the fast PWM frequency in Hz.
func (p PWMPreset) Frequency() uint32 {
	return atmega.CPUFrequency / (uint32(p.Prescaler()) * 256)
}

// PWMChannel returns the timer and compare channel wired to a pin.
func PWMChannel(pin uint8) (Timer, Channel, bool) {
	switch pin {
	case 3:
		return Timer2, ChannelB, true
	case 5:
		return Timer0, ChannelB, true
	case 6:
		return Timer0, ChannelA, true
	case 9:
		return Timer1, ChannelA, true
	case 10:
		return Timer1, ChannelB, true
	case 11:
		return Timer2, ChannelA, true
	}
	return 0, 0, false
}

// TimerPWM implements PWMDriver on the timer compare units.
type TimerPWM struct{}

func (TimerPWM) ConfigurePWM(pin GPIOPin, preset PWMPreset) error {
	t, ch, ok := PWMChannel(uint8(pin))
	if !ok {
		return ErrNotPWMCapable
	}
	if preset > PWMDiv1 {
		return ErrPresetUnavailable
	}
	// Timer0 is the time base once the clock runs
	if t == Timer0 && clockRunning && preset != PWMDiv64 {
		return ErrPresetUnavailable
	}
	loc, err := locate(pin)
	if err != nil {
		return err
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)
	t.SetMode(ModeFastPWM)
	if err := t.SetPrescaler(preset.Prescaler()); err != nil {
		return err
	}
	t.SetCompare(ch, 0)
	t.ConnectOutput(ch)
	regSetBits(loc.regs.DDR, loc.mask)
	return nil
}

func (TimerPWM) SetDutyCycle(pin GPIOPin, value uint8) error {
	t, ch, ok := PWMChannel(uint8(pin))
	if !ok {
		return ErrNotPWMCapable
	}
	t.SetCompare(ch, uint16(value))
	return nil
}

func (TimerPWM) DutyCycle(pin GPIOPin) (uint8, error) {
	t, ch, ok := PWMChannel(uint8(pin))
	if !ok {
		return 0, ErrNotPWMCapable
	}
	return uint8(t.Compare(ch)), nil
}

func (TimerPWM) GetMaxValue() uint32 {
	return 255
}

func (TimerPWM) DisablePWM(pin GPIOPin) error {
	t, ch, ok := PWMChannel(uint8(pin))
	if !ok {
		return ErrNotPWMCapable
	}
	t.DisconnectOutput(ch)
	return nil
}

// PWM is a pin whose level is driven by a timer compare unit.
type PWM struct {
	pin    *Pin
	preset PWMPreset
}

// IntoPWM hands the pin to its timer channel. The duty starts at zero.
func (p *Pin) IntoPWM(preset PWMPreset) (*PWM, error) {
	if err := MustPWM().ConfigurePWM(GPIOPin(p.id), preset); err != nil {
		return nil, err
	}
	p.state = statePWM
	return &PWM{pin: p, preset: preset}, nil
}

// SetDuty writes the compare register. The hardware applies it at the next
// counter wrap, so the change is visible within one PWM period.
func (w *PWM) SetDuty(duty uint8) error {
	return MustPWM().SetDutyCycle(GPIOPin(w.pin.id), duty)
}

// Duty returns the compare register.
func (w *PWM) Duty() (uint8, error) {
	return MustPWM().DutyCycle(GPIOPin(w.pin.id))
}

// Preset returns the clock preset the output was configured with.
func (w *PWM) Preset() PWMPreset {
	return w.preset
}

// Pin returns the Arduino pin number.
func (w *PWM) Pin() uint8 {
	return w.pin.id
}

// IntoOutput disconnects the compare output and returns the pin as a plain
// digital output.
func (w *PWM) IntoOutput() (*Pin, error) {
	if err := MustPWM().DisablePWM(GPIOPin(w.pin.id)); err != nil {
		return nil, err
	}
	if err := MustGPIO().ConfigureOutput(GPIOPin(w.pin.id)); err != nil {
		return nil, err
	}
	w.pin.state = stateOutput
	return w.pin, nil
}
