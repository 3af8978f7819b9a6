package core

import (
	"testing"

	"unohal/atmega"
)

func TestTimerPrescalerSubsets(t *testing.T) {
	newTestBoard(t)
	cases := []struct {
		timer Timer
		p     Prescaler
		ok    bool
	}{
		{Timer0, Prescale64, true},
		{Timer0, Prescale32, false},
		{Timer1, Prescale128, false},
		{Timer1, Prescale1024, true},
		{Timer2, Prescale32, true},
		{Timer2, Prescale128, true},
		{Timer2, 3, false},
	}
	for _, tc := range cases {
		err := tc.timer.SetPrescaler(tc.p)
		if tc.ok && err != nil {
			t.Errorf("%v /%d: unexpected error %v", tc.timer, tc.p, err)
		}
		if !tc.ok && err != ErrInvalidPrescaler {
			t.Errorf("%v /%d: expected ErrInvalidPrescaler, got %v", tc.timer, tc.p, err)
		}
		if tc.ok && tc.timer.Prescaler() != tc.p {
			t.Errorf("%v: expected /%d, got /%d", tc.timer, tc.p, tc.timer.Prescaler())
		}
	}
}

func TestTimerPrescalerKeepsModeBits(t *testing.T) {
	b := newTestBoard(t)
	Timer1.SetMode(ModeCTC)
	if err := Timer1.SetPrescaler(Prescale8); err != nil {
		t.Fatal(err)
	}
	if b.Peek(atmega.TCCR1B)&atmega.WGMn2 == 0 {
		t.Errorf("SetPrescaler cleared WGM12")
	}
	Timer1.Stop()
	if Timer1.Prescaler() != PrescaleStop || Timer1.Mode() != ModeCTC {
		t.Errorf("Stop: expected stopped CTC timer, got /%d %v", Timer1.Prescaler(), Timer1.Mode())
	}
}

func TestTimerModes(t *testing.T) {
	newTestBoard(t)
	for _, timer := range []Timer{Timer0, Timer1, Timer2} {
		for _, m := range []WaveformMode{ModeNormal, ModePhaseCorrectPWM, ModeCTC, ModeFastPWM} {
			timer.SetMode(m)
			if got := timer.Mode(); got != m {
				t.Errorf("%v: set mode %d, read back %d", timer, m, got)
			}
		}
	}
}

func TestSixteenBitAccessOrder(t *testing.T) {
	b := newTestBoard(t)
	b.ResetWrites()
	Timer1.SetCompare(ChannelA, 0x1234)

	var seen []uint16
	for _, w := range b.Writes() {
		if w.Addr == atmega.OCR1AH || w.Addr == atmega.OCR1AL {
			seen = append(seen, w.Addr)
		}
	}
	if len(seen) != 2 || seen[0] != atmega.OCR1AH || seen[1] != atmega.OCR1AL {
		t.Errorf("Expected high byte then low byte, got %v", seen)
	}
	if b.Peek16(atmega.OCR1AL) != 0x1234 {
		t.Errorf("Expected OCR1A 0x1234, got 0x%04X", b.Peek16(atmega.OCR1AL))
	}
	if Timer1.Compare(ChannelA) != 0x1234 {
		t.Errorf("Compare read back 0x%04X", Timer1.Compare(ChannelA))
	}
}

func TestSixteenBitAccessRestoresInterrupts(t *testing.T) {
	b := newTestBoard(t)
	enableInterrupts()
	Timer1.SetCounter(500)
	_ = Timer1.Counter()
	if !b.InterruptsEnabled() {
		t.Errorf("Interrupts left disabled after 16-bit access")
	}
}

func TestTimerFlags(t *testing.T) {
	b := newTestBoard(t)
	Timer2.SetMode(ModeCTC)
	Timer2.SetCompare(ChannelA, 9)
	_ = Timer2.SetPrescaler(Prescale1)
	b.Advance(10)

	if !Timer2.Pending(SourceCompareA) {
		t.Fatal("Expected compare A flag after 10 ticks")
	}
	if Timer2.Pending(SourceOverflow) {
		t.Errorf("CTC below MAX must not raise overflow")
	}
	Timer2.ClearPending(SourceCompareA)
	if Timer2.Pending(SourceCompareA) {
		t.Errorf("ClearPending left the flag set")
	}
}

func TestTimerInterruptEnable(t *testing.T) {
	newTestBoard(t)
	Timer1.EnableInterrupt(SourceCompareB)
	if !Timer1.InterruptEnabled(SourceCompareB) || Timer1.InterruptEnabled(SourceCompareA) {
		t.Errorf("Enable touched the wrong source")
	}
	Timer1.DisableInterrupt(SourceCompareB)
	if Timer1.InterruptEnabled(SourceCompareB) {
		t.Errorf("DisableInterrupt left the source enabled")
	}
}

func TestTimerOutputs(t *testing.T) {
	b := newTestBoard(t)
	Timer2.ConnectOutput(ChannelB)
	if !Timer2.OutputConnected(ChannelB) || Timer2.OutputConnected(ChannelA) {
		t.Errorf("ConnectOutput(B) wrong: TCCR2A=0x%02X", b.Peek(atmega.TCCR2A))
	}
	if b.Peek(atmega.TCCR2A)&(atmega.COMnB0|atmega.COMnB1) != atmega.COMnB1 {
		t.Errorf("Expected non-inverting COM bits")
	}
	Timer2.DisconnectOutput(ChannelB)
	if Timer2.OutputConnected(ChannelB) {
		t.Errorf("DisconnectOutput left the output connected")
	}
}

func TestInputCaptureOnlyOnTimer1(t *testing.T) {
	b := newTestBoard(t)
	if err := Timer0.SetInputCapture(100); err != ErrNoInputCapture {
		t.Errorf("Expected ErrNoInputCapture, got %v", err)
	}
	if err := Timer1.SetInputCapture(39999); err != nil {
		t.Fatal(err)
	}
	if b.Peek16(atmega.ICR1L) != 39999 {
		t.Errorf("Expected ICR1 39999, got %d", b.Peek16(atmega.ICR1L))
	}
}
