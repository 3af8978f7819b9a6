package core

// PulseIn measures the length of the next pulse at level on pin in
// microseconds. A pulse already in progress is skipped. It gives up with
// ErrTimeout once timeoutUS has passed since the call, including the wait
// for the pulse to start.
func PulseIn(pin uint8, level bool, timeoutUS uint32) (uint32, error) {
	gpio := MustGPIO()
	read := func() (bool, error) {
		return gpio.GetPin(GPIOPin(pin))
	}
	start := timeSource.Micros()

	// wait for any previous pulse to end
	if err := waitLevel(read, !level, start, timeoutUS); err != nil {
		return 0, err
	}
	// wait for the pulse to start
	if err := waitLevel(read, level, start, timeoutUS); err != nil {
		return 0, err
	}
	pulseStart := timeSource.Micros()
	// wait for the pulse to end
	if err := waitLevel(read, !level, start, timeoutUS); err != nil {
		return 0, err
	}
	return timeSource.Micros() - pulseStart, nil
}

func waitLevel(read func() (bool, error), want bool, start, timeoutUS uint32) error {
	for {
		v, err := read()
		if err != nil {
			return err
		}
		if v == want {
			return nil
		}
		if timeSource.Micros()-start > timeoutUS {
			return ErrTimeout
		}
	}
}
