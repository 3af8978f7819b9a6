package core

import (
	"testing"
)

func TestSelectTonePrescaler(t *testing.T) {
	cases := []struct {
		hz        uint32
		prescaler Prescaler
		compare   uint8
	}{
		{MinToneFrequency, 1024, 251},
		{440, 128, 141},
		{1000, 32, 249},
		{MaxToneFrequency, 1, 0},
	}
	for _, tc := range cases {
		s, ok := SelectTonePrescaler(tc.hz)
		if !ok {
			t.Errorf("%d Hz: expected a setting", tc.hz)
			continue
		}
		if s.Prescaler != tc.prescaler || s.Compare != tc.compare {
			t.Errorf("%d Hz: expected /%d OCR %d, got /%d OCR %d", tc.hz, tc.prescaler, tc.compare, s.Prescaler, s.Compare)
		}
		f := s.Frequency()
		if f*100 < tc.hz*99 || f*100 > tc.hz*101 {
			t.Errorf("%d Hz: actual frequency %d is more than 1%% off", tc.hz, f)
		}
	}
}

func TestSelectTonePrescalerNearest(t *testing.T) {
	// halfway between 8 MHz and 4 MHz in period, but closer to 4 MHz
	s, ok := SelectTonePrescaler(5333334)
	if !ok {
		t.Fatal("Expected a setting")
	}
	if s.Prescaler != 1 || s.Compare != 1 || s.Frequency() != 4000000 {
		t.Errorf("Expected /1 OCR 1 at 4 MHz, got /%d OCR %d at %d Hz", s.Prescaler, s.Compare, s.Frequency())
	}

	// 3000 Hz: 2666.67 counts at /1 does not fit, /8 gives 333.3, /32 gives
	// 83.33 and 83 is the nearer count
	s, _ = SelectTonePrescaler(3000)
	if s.Prescaler != 32 || s.Compare != 82 {
		t.Errorf("Expected /32 OCR 82, got /%d OCR %d", s.Prescaler, s.Compare)
	}
}

func TestToneSettingZeroValue(t *testing.T) {
	s, ok := SelectTonePrescaler(MaxToneFrequency + 1)
	if ok {
		t.Fatalf("Expected no setting above %d Hz", MaxToneFrequency)
	}
	if f := s.Frequency(); f != 0 {
		t.Errorf("Expected 0 Hz for the zero setting, got %d", f)
	}
}

func TestToneOutOfRange(t *testing.T) {
	b := newTestBoard(t)
	for _, hz := range []uint32{0, MinToneFrequency - 1, MaxToneFrequency + 1} {
		b.ResetWrites()
		ok, err := Tone(8, hz)
		if ok || err != nil {
			t.Errorf("%d Hz: expected false, nil, got %v, %v", hz, ok, err)
		}
		if n := len(b.Writes()); n != 0 {
			t.Errorf("%d Hz: expected no register writes, got %d", hz, n)
		}
	}
}

func TestToneInvalidPin(t *testing.T) {
	newTestBoard(t)
	if _, err := Tone(20, 1000); err != ErrInvalidPin {
		t.Errorf("Expected ErrInvalidPin, got %v", err)
	}
}

func TestToneForDuration(t *testing.T) {
	b := newTestBoard(t)
	ok, err := ToneFor(8, 1000, 10)
	if !ok || err != nil {
		t.Fatalf("ToneFor: %v, %v", ok, err)
	}
	b.ResetTrace()
	b.AdvanceMicros(15000)

	edges := b.PinTrace(8)
	if len(edges) != 20 {
		t.Fatalf("Expected 20 toggles, got %d", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if d := edges[i].Cycle - edges[i-1].Cycle; d != 8000 {
			t.Errorf("Toggle %d: expected 8000 cycles, got %d", i, d)
		}
	}
	if _, active := ToneActive(); active {
		t.Errorf("Expected the tone to have stopped")
	}
	if b.Level(8) {
		t.Errorf("Expected pin low after the tone")
	}
}

func TestNoToneOtherPinIgnored(t *testing.T) {
	b := newTestBoard(t)
	if ok, _ := Tone(8, 1000); !ok {
		t.Fatal("Tone failed")
	}
	if err := NoTone(9); err != nil {
		t.Fatal(err)
	}
	if pin, active := ToneActive(); !active || pin != 8 {
		t.Errorf("Expected tone still on pin 8, got %d %v", pin, active)
	}

	b.AdvanceMicros(700)
	if err := NoTone(8); err != nil {
		t.Fatal(err)
	}
	if _, active := ToneActive(); active || b.Level(8) {
		t.Errorf("Expected NoTone to stop and drive low")
	}
	b.ResetTrace()
	b.AdvanceMicros(5000)
	if len(b.PinTrace(8)) != 0 {
		t.Errorf("Pin still toggles after NoTone")
	}
}

func TestToneMovesToNewPin(t *testing.T) {
	b := newTestBoard(t)
	_, _ = Tone(8, 1000)
	b.AdvanceMicros(700)
	if !b.Level(8) {
		t.Fatal("Expected pin 8 high after the first half period")
	}
	_, _ = Tone(9, 2000)
	if b.Level(8) {
		t.Errorf("Expected the old pin driven low")
	}
	b.ResetTrace()
	b.AdvanceMicros(2000)
	if len(b.PinTrace(8)) != 0 || len(b.PinTrace(9)) == 0 {
		t.Errorf("Expected only pin 9 to toggle")
	}
}
