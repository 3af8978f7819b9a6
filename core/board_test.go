package core

import (
	"testing"

	"unohal/sim"
)

// newTestBoard installs a fresh simulated chip as the register bus and puts
// every package-level state back to reset.
func newTestBoard(t *testing.T) *sim.Board {
	t.Helper()
	b := sim.New(HandleInterrupt)
	SetRegisterBus(b)

	sysClock = Clock{}
	clockRunning = false
	peripheralsTaken = false
	servoSlots = [MaxServos]servoSlot{}
	servoCount = 0
	servoSched = newServoScheduler()
	tone = toneState{}
	extHandlers = [2]InterruptHandler{}
	pcintHandlers = [PinChangeBanks]InterruptHandler{}
	timerList = nil
	servoOIDs = [MaxServos]*Servo{}
	for i := range queuedOuts {
		queuedOuts[i].busy = false
		queuedOuts[i].timer.Next = nil
	}
	isShutdown = false
	gpioDriver = PortDriver{}
	pwmDriver = TimerPWM{}
	timeSource = hardwareTime{}
	ClearTimingRing()

	t.Cleanup(func() { SetTimeSource(nil) })
	return b
}

// simTime is a TimeSource that moves the simulated chip forward by step
// microseconds on every poll, so busy waits terminate.
type simTime struct {
	b    *sim.Board
	step uint32
}

func (s simTime) Micros() uint32 {
	s.b.AdvanceMicros(s.step)
	return Micros()
}

// highPeriods returns the lengths in CPU cycles of the complete high pulses
// of pin in the trace.
func highPeriods(b *sim.Board, pin uint8) []uint64 {
	var out []uint64
	var rise uint64
	seen := false
	for _, e := range b.PinTrace(pin) {
		if e.High {
			rise = e.Cycle
			seen = true
		} else if seen {
			out = append(out, e.Cycle-rise)
			seen = false
		}
	}
	return out
}

const cyclesPerMicro = 16
