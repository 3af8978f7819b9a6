package core

import (
	"testing"

	"unohal/atmega"
)

func TestPinModes(t *testing.T) {
	b := newTestBoard(t)
	p, _ := Take()
	led := p.D(13)

	if led.Mode() != "input" {
		t.Errorf("Expected a new pin to be an input, got %s", led.Mode())
	}
	if err := led.High(); err != ErrWrongMode {
		t.Errorf("Expected ErrWrongMode on an input, got %v", err)
	}
	if err := led.IntoOutput(); err != nil {
		t.Fatal(err)
	}
	if err := led.High(); err != nil {
		t.Fatal(err)
	}
	if !b.Level(13) {
		t.Errorf("Expected D13 high")
	}
	_ = led.Toggle()
	if b.Level(13) {
		t.Errorf("Expected D13 low after toggle")
	}
	if v, _ := led.Read(); v {
		t.Errorf("Expected Read to report low")
	}
}

func TestPullUpInput(t *testing.T) {
	b := newTestBoard(t)
	p, _ := Take()
	btn := p.D(7)
	if err := btn.IntoPullUpInput(); err != nil {
		t.Fatal(err)
	}
	if v, _ := btn.Read(); !v {
		t.Errorf("Expected the pull-up to read high")
	}
	b.Drive(7, false)
	if v, _ := btn.Read(); v {
		t.Errorf("Expected low while driven low")
	}
}

func TestDigitalFreeFunctions(t *testing.T) {
	b := newTestBoard(t)
	if err := PinMode(20, Output); err != ErrInvalidPin {
		t.Errorf("Expected ErrInvalidPin, got %v", err)
	}
	if err := PinMode(4, IOMode(9)); err != ErrWrongMode {
		t.Errorf("Expected ErrWrongMode, got %v", err)
	}

	// writing an input switches its pull-up
	_ = PinMode(4, Input)
	_ = DigitalWrite(4, true)
	if !b.Level(4) || b.Peek(atmega.DDRD)&(1<<4) != 0 {
		t.Errorf("Expected a pulled-up input")
	}

	_ = PinMode(atmega.PinA0+2, Output)
	_ = DigitalWrite(atmega.PinA0+2, true)
	if b.Peek(atmega.PORTC)&(1<<2) == 0 {
		t.Errorf("Expected PC2 set")
	}
	_ = DigitalToggle(atmega.PinA0 + 2)
	if v, _ := DigitalRead(atmega.PinA0 + 2); v {
		t.Errorf("Expected A2 low after toggle")
	}
}

func TestPWMPresetRestrictedOnTimer0(t *testing.T) {
	newTestBoard(t)
	p, _ := Take()
	if _, err := p.D(5).IntoPWM(PWMDiv8); err != ErrPresetUnavailable {
		t.Errorf("Expected ErrPresetUnavailable on D5, got %v", err)
	}
	if _, err := p.D(6).IntoPWM(PWMDiv64); err != nil {
		t.Errorf("D6 at the clock rate: %v", err)
	}
	if _, err := p.D(9).IntoPWM(PWMDiv1); err != nil {
		t.Errorf("D9 at 62.5 kHz: %v", err)
	}
	if _, err := p.D(4).IntoPWM(PWMDiv64); err != ErrNotPWMCapable {
		t.Errorf("Expected ErrNotPWMCapable on D4, got %v", err)
	}
}

func TestPWMDutyAndRelease(t *testing.T) {
	b := newTestBoard(t)
	p, _ := Take()
	pin := p.D(10)
	pwm, err := pin.IntoPWM(PWMDiv8)
	if err != nil {
		t.Fatal(err)
	}
	if pin.Mode() != "pwm" {
		t.Errorf("Expected pwm mode, got %s", pin.Mode())
	}
	if err := pin.IntoInput(); err != ErrWrongMode {
		t.Errorf("Expected ErrWrongMode, got %v", err)
	}
	if b.Peek(atmega.TCCR1A)&atmega.COMnB1 == 0 {
		t.Errorf("Expected OC1B connected")
	}
	if b.Peek(atmega.DDRB)&(1<<2) == 0 {
		t.Errorf("Expected PB2 as output")
	}

	_ = pwm.SetDuty(200)
	if d, _ := pwm.Duty(); d != 200 {
		t.Errorf("Expected duty 200, got %d", d)
	}
	if b.Peek16(atmega.OCR1BL) != 200 {
		t.Errorf("Expected OCR1B 200, got %d", b.Peek16(atmega.OCR1BL))
	}

	out, err := pwm.IntoOutput()
	if err != nil {
		t.Fatal(err)
	}
	if b.Peek(atmega.TCCR1A)&(atmega.COMnB0|atmega.COMnB1) != 0 {
		t.Errorf("Expected OC1B disconnected")
	}
	if err := out.High(); err != nil || !b.Level(10) {
		t.Errorf("Expected D10 usable as output: %v", err)
	}
}

func TestPWMPresetFrequency(t *testing.T) {
	want := map[PWMPreset]uint32{PWMDiv64: 976, PWMDiv8: 7812, PWMDiv1: 62500}
	for preset, hz := range want {
		if got := preset.Frequency(); got != hz {
			t.Errorf("Preset %d: expected %d Hz, got %d", preset, hz, got)
		}
	}
}

func TestDriverOverride(t *testing.T) {
	newTestBoard(t)
	fake := &countingGPIO{}
	SetGPIODriver(fake)
	_ = DigitalWrite(3, true)
	if fake.sets != 1 {
		t.Errorf("Expected the installed driver to be used")
	}
}

type countingGPIO struct {
	PortDriver
	sets int
}

func (c *countingGPIO) SetPin(pin GPIOPin, value bool) error {
	c.sets++
	return nil
}
