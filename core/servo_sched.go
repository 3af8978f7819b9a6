package core

import "unohal/atmega"

// Servo timing, in microseconds unless noted.
const (
	MaxServos         = 12
	MinPulseWidth     = 544  // 0 degrees
	MaxPulseWidth     = 2400 // 180 degrees
	DefaultPulseWidth = 1500
	RefreshInterval   = 20000 // one frame

	servoPrescaler   = 8
	servoTicksPerUS  = atmega.CPUFrequency / 1000000 / servoPrescaler
	servoFrameTicks  = RefreshInterval * servoTicksPerUS
	servoStartTicks  = 2 * servoTicksPerUS // delay from arming to the first frame
	servoMinGapTicks = 1
	servoNoChannel   = -1
)

type servoPhase uint8

const (
	phaseIdle  servoPhase = iota // compare interrupt off
	phasePulse                   // current channel's pin is high
	phaseGap                     // waiting out the rest of the frame
)

func (p servoPhase) String() string {
	switch p {
	case phasePulse:
		return "pulse"
	case phaseGap:
		return "gap"
	}
	return "idle"
}

// servoSlot is one channel of the frame. width is only written with
// interrupts disabled; the vector reads it when it starts the pulse.
type servoSlot struct {
	pin      uint8
	loc      pinLoc
	width    uint16
	attached bool
}

// servoStep is what the compare vector has to do on one firing: drive one
// pin low, drive one pin high, and fire again after ticks timer ticks.
type servoStep struct {
	lowPin  int8
	highPin int8
	ticks   uint16
	phase   servoPhase
}

// servoScheduler sequences the channels of a frame. It makes every timing
// decision and touches no registers, so frame timing can be checked without
// a timer.
type servoScheduler struct {
	phase   servoPhase
	current int8
	spent   uint32 // pulse ticks issued in the current frame
}

func newServoScheduler() servoScheduler {
	return servoScheduler{phase: phaseIdle, current: servoNoChannel}
}

// scanAttached returns the first attached channel at or after from.
func scanAttached(slots []servoSlot, from int) int8 {
	for i := from; i < len(slots); i++ {
		if slots[i].attached {
			return int8(i)
		}
	}
	return servoNoChannel
}

// start arms an idle scheduler. The next fire begins a frame.
func (s *servoScheduler) start() servoStep {
	s.phase = phaseGap
	s.current = servoNoChannel
	s.spent = 0
	return servoStep{lowPin: servoNoChannel, highPin: servoNoChannel, ticks: servoStartTicks, phase: phaseGap}
}

// fire advances the scheduler by one compare match.
func (s *servoScheduler) fire(slots []servoSlot) servoStep {
	step := servoStep{lowPin: servoNoChannel, highPin: servoNoChannel}

	var next int8
	switch s.phase {
	case phasePulse:
		step.lowPin = s.current
		next = scanAttached(slots, int(s.current)+1)
	default:
		// a new frame
		s.spent = 0
		next = scanAttached(slots, 0)
	}

	if next != servoNoChannel {
		ticks := servoPulseTicks(slots[next].width)
		s.phase = phasePulse
		s.current = next
		s.spent += uint32(ticks)
		step.highPin = next
		step.ticks = ticks
		step.phase = phasePulse
		return step
	}

	s.current = servoNoChannel
	if s.phase != phasePulse {
		// nothing attached at the frame boundary
		s.phase = phaseIdle
		step.phase = phaseIdle
		return step
	}

	var gap uint32
	if s.spent < servoFrameTicks {
		gap = servoFrameTicks - s.spent
	}
	s.phase = phaseGap
	step.ticks = uint16(gap)
	step.phase = phaseGap
	return step
}

// servoPulseTicks converts a width in microseconds to timer ticks.
func servoPulseTicks(us uint16) uint16 {
	return us * servoTicksPerUS
}
