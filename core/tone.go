// Square wave tones on any pin, toggled from the Timer2 compare A vector
package core

import "unohal/atmega"

// Frequency limits of Tone at 16 MHz: the compare value must fit 1..256 for
// one of Timer2's divisors. Near the top the representable frequencies are
// far apart (8 MHz, 4 MHz, 2.67 MHz at /1), and a request between two of them
// gets whichever is closer.
const (
	MinToneFrequency = 31
	MaxToneFrequency = atmega.CPUFrequency / 2
)

// ToneSetting is a Timer2 configuration for one tone frequency.
type ToneSetting struct {
	Prescaler Prescaler
	Bits      uint8 // CS22:0
	Compare   uint8 // OCR2A, one less than the count per half period
}

// Frequency returns the frequency the setting actually produces in Hz.
func (s ToneSetting) Frequency() uint32 {
	if s.Prescaler == 0 {
		return 0
	}
	return atmega.CPUFrequency / (2 * uint32(s.Prescaler) * (uint32(s.Compare) + 1))
}

// SelectTonePrescaler picks the smallest Timer2 divisor whose half-period
// count fits the 8-bit compare register, then the count next to it when that
// one lands closer to hz. ok is false when no divisor fits.
func SelectTonePrescaler(hz uint32) (ToneSetting, bool) {
	if hz == 0 {
		return ToneSetting{}, false
	}
	for _, cs := range atmega.ClockSelect2 {
		v := atmega.CPUFrequency / hz / 2 / uint32(cs.Divisor)
		if v < 1 || v > 256 {
			continue
		}
		s := ToneSetting{Prescaler: Prescaler(cs.Divisor), Bits: cs.Bits, Compare: uint8(v - 1)}
		if v < 256 {
			longer := s
			longer.Compare = uint8(v)
			if absDiff(longer.Frequency(), hz) < absDiff(s.Frequency(), hz) {
				s = longer
			}
		}
		return s, true
	}
	return ToneSetting{}, false
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

type toneState struct {
	active  bool
	pin     uint8
	loc     pinLoc
	toggles uint32 // remaining toggles, 0 runs until NoTone
}

var tone toneState

// Tone plays a square wave on pin until NoTone. It returns false without
// touching any register when hz is outside MinToneFrequency..MaxToneFrequency.
func Tone(pin uint8, hz uint32) (bool, error) {
	return ToneFor(pin, hz, 0)
}

// ToneFor plays a square wave for ms milliseconds, or until NoTone when ms
// is zero. A tone already playing on another pin is stopped first.
func ToneFor(pin uint8, hz uint32, ms uint32) (bool, error) {
	loc, err := locate(GPIOPin(pin))
	if err != nil {
		return false, err
	}
	setting, ok := SelectTonePrescaler(hz)
	if !ok {
		return false, nil
	}

	var toggles uint32
	if ms > 0 {
		n := 2 * uint64(hz) * uint64(ms) / 1000
		if n == 0 {
			n = 1
		}
		if n > 0xFFFFFFFF {
			n = 0xFFFFFFFF
		}
		toggles = uint32(n)
	}

	state := disableInterrupts()
	Timer2.DisableInterrupt(SourceCompareA)
	if tone.active && tone.pin != pin {
		tone.loc.write(false)
	}
	Timer2.DisconnectOutput(ChannelA)
	Timer2.SetMode(ModeCTC)
	regModify(atmega.TCCR2B, atmega.CSMask, setting.Bits)
	Timer2.SetCompare(ChannelA, uint16(setting.Compare))
	Timer2.SetCounter(0)

	loc.write(false)
	regSetBits(loc.regs.DDR, loc.mask)
	tone = toneState{active: true, pin: pin, loc: loc, toggles: toggles}

	Timer2.ClearPending(SourceCompareA)
	Timer2.EnableInterrupt(SourceCompareA)
	restoreInterrupts(state)

	enableInterrupts()
	return true, nil
}

// NoTone stops the tone if it is playing on pin and drives the pin low.
// Any other pin is left alone.
func NoTone(pin uint8) error {
	if _, err := locate(GPIOPin(pin)); err != nil {
		return err
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	if tone.active && tone.pin == pin {
		stopTone()
	}
	return nil
}

// ToneActive returns the pin currently playing a tone.
func ToneActive() (uint8, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return tone.pin, tone.active
}

// stopTone runs with interrupts disabled.
func stopTone() {
	Timer2.DisableInterrupt(SourceCompareA)
	tone.loc.write(false)
	tone.active = false
	tone.toggles = 0
}

// timer2CompareA is the TIMER2_COMPA vector body.
func timer2CompareA() {
	if !tone.active {
		Timer2.DisableInterrupt(SourceCompareA)
		return
	}
	tone.loc.toggle()
	if tone.toggles == 0 {
		return
	}
	tone.toggles--
	if tone.toggles == 0 {
		stopTone()
		RecordTiming(EvtToneStop, tone.pin, sysClock.Millis(), 0, 0)
	}
}
