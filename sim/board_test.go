package sim

import (
	"testing"

	"unohal/atmega"
)

func TestTimer0OverflowPeriod(t *testing.T) {
	var hits []uint64
	var b *Board
	b = New(func(v atmega.Vector) {
		if v == atmega.VectorTimer0Ovf {
			hits = append(hits, b.Cycle())
		}
	})

	b.Store(atmega.TCCR0B, 0b011) // clk/64
	b.Store(atmega.TIMSK0, atmega.TOIE)
	b.Store(atmega.SREG, atmega.SREG_I)

	b.Advance(64 * 256 * 10)

	if len(hits) != 10 {
		t.Fatalf("Expected 10 overflows, got %d", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if d := hits[i] - hits[i-1]; d != 64*256 {
			t.Errorf("Expected overflow period %d cycles, got %d", 64*256, d)
		}
	}
}

func TestFlagsLatchWhileInterruptsDisabled(t *testing.T) {
	calls := 0
	b := New(func(v atmega.Vector) { calls++ })

	b.Store(atmega.TCCR0B, 0b001)
	b.Store(atmega.TIMSK0, atmega.TOIE)
	b.Advance(300)

	if b.Peek(atmega.TIFR0)&atmega.TOV == 0 {
		t.Fatal("Expected TOV0 to be pending")
	}
	if calls != 0 {
		t.Fatalf("Expected no dispatch with SREG.I clear, got %d", calls)
	}

	b.Store(atmega.SREG, atmega.SREG_I)
	if calls != 1 {
		t.Errorf("Expected pending overflow to run on sei, got %d calls", calls)
	}
	if b.Peek(atmega.TIFR0)&atmega.TOV != 0 {
		t.Error("Expected TOV0 cleared by vector entry")
	}
}

func TestFlagWriteOneToClear(t *testing.T) {
	b := New(nil)
	b.Store(atmega.TCCR2B, 0b001)
	b.Advance(256)
	flags := b.Peek(atmega.TIFR2)
	if flags&atmega.TOV == 0 {
		t.Fatal("Expected TOV2 set")
	}

	// writing zero must not clear anything
	b.Store(atmega.TIFR2, 0)
	if b.Peek(atmega.TIFR2) != flags {
		t.Errorf("Expected flags unchanged, got %08b", b.Peek(atmega.TIFR2))
	}
	b.Store(atmega.TIFR2, atmega.TOV)
	if b.Peek(atmega.TIFR2)&atmega.TOV != 0 {
		t.Error("Expected TOV2 cleared")
	}
}

func TestTimer1CTCCompare(t *testing.T) {
	var hits []uint64
	var b *Board
	b = New(func(v atmega.Vector) {
		if v == atmega.VectorTimer1CompA {
			hits = append(hits, b.Cycle())
		}
	})

	// OCR1A = 1999, high byte first
	b.Store(atmega.OCR1AH, 0x07)
	b.Store(atmega.OCR1AL, 0xCF)
	b.Store(atmega.TCCR1B, atmega.WGMn2|0b010) // CTC, clk/8
	b.Store(atmega.TIMSK1, atmega.OCIEA)
	b.Store(atmega.SREG, atmega.SREG_I)

	b.Advance(8 * 2000 * 3)

	if len(hits) != 3 {
		t.Fatalf("Expected 3 compare matches, got %d", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if d := hits[i] - hits[i-1]; d != 8*2000 {
			t.Errorf("Expected CTC period %d cycles, got %d", 8*2000, d)
		}
	}
	if b.Peek(atmega.TIFR1)&atmega.TOV != 0 {
		t.Error("CTC with TOP below MAX must not set TOV1")
	}
}

func TestSixteenBitTempLatch(t *testing.T) {
	b := New(nil)

	// low byte alone writes whatever TEMP holds as the high byte
	b.Store(atmega.TCNT1H, 0x12)
	b.Store(atmega.TCNT1L, 0x34)
	if got := b.Peek16(atmega.TCNT1L); got != 0x1234 {
		t.Fatalf("Expected TCNT1 0x1234, got 0x%04X", got)
	}

	lo := b.Load(atmega.TCNT1L)
	b.Store(atmega.OCR1BH, 0x55) // overwrites TEMP, as a careless ISR would
	hi := b.Load(atmega.TCNT1H)
	if lo != 0x34 {
		t.Errorf("Expected low byte 0x34, got 0x%02X", lo)
	}
	if hi != 0x55 {
		t.Errorf("Expected TEMP corruption to be visible, got 0x%02X", hi)
	}
}

func TestVectorPriority(t *testing.T) {
	var order []atmega.Vector
	b := New(func(v atmega.Vector) { order = append(order, v) })

	b.Store(atmega.TIMSK0, atmega.TOIE)
	b.Store(atmega.TIMSK2, atmega.OCFA)
	b.Store(atmega.EIMSK, atmega.INT1)
	b.mem[atmega.TIFR0] |= atmega.TOV
	b.mem[atmega.TIFR2] |= atmega.OCFA
	b.mem[atmega.EIFR] |= atmega.INTF1

	b.Store(atmega.SREG, atmega.SREG_I)

	want := []atmega.Vector{atmega.VectorINT1, atmega.VectorTimer2CompA, atmega.VectorTimer0Ovf}
	if len(order) != len(want) {
		t.Fatalf("Expected %d vectors, got %v", len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Vector %d: expected %v, got %v", i, want[i], order[i])
		}
	}
}

func TestVectorsDoNotNest(t *testing.T) {
	depth, maxDepth := 0, 0
	var b *Board
	b = New(func(v atmega.Vector) {
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		if v == atmega.VectorINT0 {
			// raise another source and re-enable interrupts inside the vector
			b.mem[atmega.EIFR] |= atmega.INTF1
			b.Store(atmega.SREG, atmega.SREG_I)
		}
		depth--
	})
	b.Store(atmega.EIMSK, atmega.INT0|atmega.INT1)
	b.mem[atmega.EIFR] |= atmega.INTF0
	b.Store(atmega.SREG, atmega.SREG_I)

	if maxDepth != 1 {
		t.Errorf("Expected no nesting, got depth %d", maxDepth)
	}
	if b.Peek(atmega.EIFR) != 0 {
		t.Errorf("Expected both external flags serviced, got %02b", b.Peek(atmega.EIFR))
	}
}

func TestGPIOLevels(t *testing.T) {
	b := New(nil)

	// D13 = PB5 as output high
	b.Store(atmega.DDRB, 1<<5)
	b.Store(atmega.PORTB, 1<<5)
	if !b.Level(13) {
		t.Error("Expected D13 high")
	}
	if b.Load(atmega.PINB)&(1<<5) == 0 {
		t.Error("Expected PINB5 set")
	}

	// writing PIN toggles PORT
	b.Store(atmega.PINB, 1<<5)
	if b.Level(13) {
		t.Error("Expected D13 low after PIN toggle")
	}

	// input with pull-up floats high, external drive wins
	b.Store(atmega.PORTD, 1<<4)
	if !b.Level(4) {
		t.Error("Expected pulled-up D4 high")
	}
	b.Drive(4, false)
	if b.Level(4) {
		t.Error("Expected driven D4 low")
	}
	b.Release(4)
	if !b.Level(4) {
		t.Error("Expected released D4 back to pull-up level")
	}

	trace := b.PinTrace(13)
	if len(trace) != 2 || !trace[0].High || trace[1].High {
		t.Errorf("Unexpected D13 trace %+v", trace)
	}
}

func TestExternalInterruptSense(t *testing.T) {
	calls := 0
	b := New(func(v atmega.Vector) {
		if v == atmega.VectorINT0 {
			calls++
		}
	})
	b.Store(atmega.EICRA, 0b11) // rising
	b.Store(atmega.EIMSK, atmega.INT0)
	b.Store(atmega.SREG, atmega.SREG_I)

	b.Drive(2, true)
	b.Drive(2, false)
	b.Drive(2, true)
	if calls != 2 {
		t.Errorf("Expected 2 rising edges, got %d", calls)
	}

	b.Store(atmega.EICRA, 0b01) // any change
	b.Drive(2, false)
	b.Drive(2, true)
	if calls != 4 {
		t.Errorf("Expected 4 calls after change mode, got %d", calls)
	}
}

func TestPinChangeFlag(t *testing.T) {
	var got []atmega.Vector
	b := New(func(v atmega.Vector) { got = append(got, v) })

	// A0 is PC0, bank 1
	b.Store(atmega.PCMSK1, 1<<0)
	b.Store(atmega.PCICR, atmega.PCIE1)
	b.Store(atmega.SREG, atmega.SREG_I)

	b.Drive(atmega.PinA0, true)
	b.Drive(atmega.PinA0+1, true) // A1 not in the mask

	if len(got) != 1 || got[0] != atmega.VectorPCINT1 {
		t.Errorf("Expected one PCINT1, got %v", got)
	}
}
