package core

import (
	"testing"

	"unohal/atmega"
)

func attachedSlots(widths ...uint16) []servoSlot {
	slots := make([]servoSlot, MaxServos)
	for i, w := range widths {
		slots[i] = servoSlot{width: w, attached: true}
	}
	return slots
}

// runFrame fires the scheduler until the frame gap and returns the ticks of
// every step.
func runFrame(t *testing.T, s *servoScheduler, slots []servoSlot) []servoStep {
	t.Helper()
	var steps []servoStep
	for i := 0; i <= MaxServos; i++ {
		step := s.fire(slots)
		steps = append(steps, step)
		if step.phase != phasePulse {
			return steps
		}
	}
	t.Fatal("frame never reached its gap")
	return nil
}

func TestServoFrameSumsToRefreshInterval(t *testing.T) {
	for n := 1; n <= MaxServos; n++ {
		var widths []uint16
		for i := 0; i < n; i++ {
			widths = append(widths, MinPulseWidth+uint16(i)*150)
		}
		slots := attachedSlots(widths...)
		s := newServoScheduler()
		s.start()

		for frame := 0; frame < 3; frame++ {
			var total uint32
			steps := runFrame(t, &s, slots)
			for _, st := range steps {
				total += uint32(st.ticks)
			}
			if len(steps) != n+1 {
				t.Errorf("%d channels: expected %d steps, got %d", n, n+1, len(steps))
			}
			if total != servoFrameTicks {
				t.Errorf("%d channels frame %d: expected %d ticks, got %d", n, frame, servoFrameTicks, total)
			}
		}
	}
}

func TestServoSchedulerPinOrder(t *testing.T) {
	slots := attachedSlots(1000, 0, 1200)
	slots[1].attached = false
	s := newServoScheduler()
	s.start()

	steps := runFrame(t, &s, slots)
	want := []servoStep{
		{lowPin: servoNoChannel, highPin: 0, ticks: 2000, phase: phasePulse},
		{lowPin: 0, highPin: 2, ticks: 2400, phase: phasePulse},
		{lowPin: 2, highPin: servoNoChannel, ticks: servoFrameTicks - 4400, phase: phaseGap},
	}
	if len(steps) != len(want) {
		t.Fatalf("Expected %d steps, got %+v", len(want), steps)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("Step %d: expected %+v, got %+v", i, want[i], steps[i])
		}
	}
}

func TestServoSchedulerIdleWithoutChannels(t *testing.T) {
	s := newServoScheduler()
	s.start()
	step := s.fire(attachedSlots())
	if step.phase != phaseIdle || s.phase != phaseIdle {
		t.Errorf("Expected idle, got step %v scheduler %v", step.phase, s.phase)
	}
}

func TestServoSchedulerOverlongFrame(t *testing.T) {
	widths := make([]uint16, MaxServos)
	for i := range widths {
		widths[i] = MaxPulseWidth
	}
	s := newServoScheduler()
	s.start()
	steps := runFrame(t, &s, attachedSlots(widths...))
	if gap := steps[len(steps)-1]; gap.phase != phaseGap || gap.ticks != 0 {
		t.Errorf("Expected zero gap when pulses exceed the frame, got %+v", gap)
	}
}

func TestServoAngleRoundTrip(t *testing.T) {
	limits := [][2]uint16{{MinPulseWidth, MaxPulseWidth}, {1000, 2000}, {500, 680}}
	for _, l := range limits {
		for a := uint16(0); a <= 180; a++ {
			back := widthToAngle(angleToWidth(a, l[0], l[1]), l[0], l[1])
			if back+1 < a || back > a+1 {
				t.Errorf("Limits %v: angle %d came back as %d", l, a, back)
			}
		}
	}
}

func TestServoWriteClamps(t *testing.T) {
	newTestBoard(t)
	s := NewServo()
	if err := s.AttachWithLimits(7, 1000, 2000); err != nil {
		t.Fatal(err)
	}
	s.WriteMicroseconds(3000)
	if s.ReadMicroseconds() != 2000 {
		t.Errorf("Expected 2000, got %d", s.ReadMicroseconds())
	}
	s.Write(250)
	if s.Read() != 180 {
		t.Errorf("Expected 180 degrees, got %d", s.Read())
	}
	s.Write(90)
	if s.ReadMicroseconds() != 1500 {
		t.Errorf("Expected 1500 µs at 90 degrees, got %d", s.ReadMicroseconds())
	}
}

func TestServoAttachValidation(t *testing.T) {
	newTestBoard(t)
	s := NewServo()
	cases := []struct {
		pin      uint8
		min, max uint16
		want     error
	}{
		{20, 544, 2400, ErrInvalidPin},
		{7, 2000, 1000, ErrServoLimits},
		{7, 1000, 1179, ErrServoLimits},
		{7, 1000, 20001, ErrServoLimits},
		{7, 1000, 1180, nil},
	}
	for _, tc := range cases {
		if err := s.AttachWithLimits(tc.pin, tc.min, tc.max); err != tc.want {
			t.Errorf("Attach(%d, %d, %d): expected %v, got %v", tc.pin, tc.min, tc.max, tc.want, err)
		}
	}
}

func TestThirteenthServoPanics(t *testing.T) {
	newTestBoard(t)
	for i := 0; i < MaxServos; i++ {
		NewServo()
	}
	defer func() {
		if recover() == nil {
			t.Errorf("Expected panic on the 13th servo")
		}
	}()
	NewServo()
}

func TestServoPulseTrain(t *testing.T) {
	b := newTestBoard(t)
	a, c := NewServo(), NewServo()
	a.Write(90)
	if err := a.Attach(4); err != nil {
		t.Fatal(err)
	}
	if err := c.AttachWithLimits(5, 1000, 2000); err != nil {
		t.Fatal(err)
	}
	c.Write(0)
	if a.ReadMicroseconds() != 1472 || c.ReadMicroseconds() != 1000 {
		t.Fatalf("Expected 1472 and 1000 µs, got %d and %d", a.ReadMicroseconds(), c.ReadMicroseconds())
	}
	b.ResetTrace()
	b.AdvanceMicros(3 * RefreshInterval)

	pa, pc := b.PinTrace(4), b.PinTrace(5)
	if len(pa) < 4 || len(pc) < 4 {
		t.Fatalf("Expected at least two pulses per pin, got %d and %d edges", len(pa), len(pc))
	}
	if !pa[0].High || pa[1].High {
		t.Fatalf("Expected pin 4 to rise first, got %+v", pa[:2])
	}
	if got := pa[1].Cycle - pa[0].Cycle; got != 1472*cyclesPerMicro {
		t.Errorf("Pulse A: expected %d cycles, got %d", 1472*cyclesPerMicro, got)
	}
	if pc[0].Cycle != pa[1].Cycle {
		t.Errorf("Pulse B should start as A ends: %d vs %d", pc[0].Cycle, pa[1].Cycle)
	}
	if got := pc[1].Cycle - pc[0].Cycle; got != 1000*cyclesPerMicro {
		t.Errorf("Pulse B: expected %d cycles, got %d", 1000*cyclesPerMicro, got)
	}
	if got := pa[2].Cycle - pc[1].Cycle; got != 17528*cyclesPerMicro {
		t.Errorf("Gap: expected %d cycles, got %d", 17528*cyclesPerMicro, got)
	}
	if got := pa[2].Cycle - pa[0].Cycle; got != RefreshInterval*cyclesPerMicro {
		t.Errorf("Frame: expected %d cycles, got %d", RefreshInterval*cyclesPerMicro, got)
	}
}

func TestServoWidthChangeTakesEffectNextPulse(t *testing.T) {
	b := newTestBoard(t)
	s := NewServo()
	if err := s.Attach(6); err != nil {
		t.Fatal(err)
	}
	b.ResetTrace()
	b.AdvanceMicros(500)
	s.WriteMicroseconds(2000)
	b.AdvanceMicros(2 * RefreshInterval)

	periods := highPeriods(b, 6)
	if len(periods) < 2 {
		t.Fatalf("Expected two pulses, got %v", periods)
	}
	if periods[1] != 2000*cyclesPerMicro {
		t.Errorf("Expected the next pulse at 2000 µs, got %d cycles", periods[1])
	}
}

func TestServoDetachMidPulse(t *testing.T) {
	b := newTestBoard(t)
	s := NewServo()
	if err := s.Attach(8); err != nil {
		t.Fatal(err)
	}
	b.AdvanceMicros(500)
	if !b.Level(8) {
		t.Fatal("Expected the pulse to be running")
	}

	s.Detach()
	if b.Level(8) {
		t.Errorf("Detach left the pin high")
	}
	b.ResetTrace()
	b.AdvanceMicros(2 * RefreshInterval)
	if len(b.PinTrace(8)) != 0 {
		t.Errorf("Detached pin still toggles: %+v", b.PinTrace(8))
	}
	if ServoPhase() != "idle" {
		t.Errorf("Expected idle scheduler, got %s", ServoPhase())
	}
	if b.Peek(atmega.TIMSK1)&atmega.OCIEA != 0 {
		t.Errorf("Compare interrupt still enabled while idle")
	}
}

func TestServoReattachRestartsFrame(t *testing.T) {
	b := newTestBoard(t)
	s := NewServo()
	_ = s.Attach(8)
	s.Detach()
	b.AdvanceMicros(2 * RefreshInterval)

	if err := s.Attach(8); err != nil {
		t.Fatal(err)
	}
	b.ResetTrace()
	b.AdvanceMicros(RefreshInterval)
	if p := highPeriods(b, 8); len(p) != 1 || p[0] != DefaultPulseWidth*cyclesPerMicro {
		t.Errorf("Expected one default pulse after reattach, got %v", p)
	}
}

func TestServoMoveToAnotherPinMidPulse(t *testing.T) {
	b := newTestBoard(t)
	s := NewServo()
	if err := s.Attach(8); err != nil {
		t.Fatal(err)
	}
	b.AdvanceMicros(500)
	if !b.Level(8) {
		t.Fatal("Expected the pulse to be running")
	}

	if err := s.Attach(7); err != nil {
		t.Fatal(err)
	}
	if b.Level(8) {
		t.Errorf("Old pin left high by the move")
	}
	b.ResetTrace()
	b.AdvanceMicros(3 * RefreshInterval)
	if b.Level(8) || len(b.PinTrace(8)) != 0 {
		t.Errorf("Old pin still driven: level %v, trace %+v", b.Level(8), b.PinTrace(8))
	}
	if p := highPeriods(b, 7); len(p) < 2 {
		t.Errorf("Expected pulses on the new pin, got %v", p)
	}
}
