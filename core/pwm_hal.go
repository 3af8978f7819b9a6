package core

// PWMDriver is the abstract PWM interface that core code uses.
// TimerPWM drives the timer compare outputs; tests may swap in a mock.
type PWMDriver interface {
	// ConfigurePWM puts the pin's timer in fast PWM mode at the preset rate
	// and connects the compare output to the pin
	ConfigurePWM(pin GPIOPin, preset PWMPreset) error

	// SetDutyCycle writes the compare register
	// value: 0 (narrowest pulse) to GetMaxValue() (always on)
	SetDutyCycle(pin GPIOPin, value uint8) error

	// DutyCycle reads the compare register back
	DutyCycle(pin GPIOPin) (uint8, error)

	// GetMaxValue returns the maximum PWM value (255, 8-bit on every timer)
	GetMaxValue() uint32

	// DisablePWM disconnects the compare output so the pin is plain GPIO again
	DisablePWM(pin GPIOPin) error
}

// Global singleton used by core code.
var pwmDriver PWMDriver = TimerPWM{}

// SetPWMDriver is called by target-specific code to register its driver.
func SetPWMDriver(d PWMDriver) {
	pwmDriver = d
}

// MustPWM returns the configured driver or panics if missing.
func MustPWM() PWMDriver {
	if pwmDriver == nil {
		panic("PWM driver not configured")
	}
	return pwmDriver
}
