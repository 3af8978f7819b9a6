package core

// DebugWriter receives one line of debug text.
type DebugWriter func(string)

// TimingEvent is one entry of the timing ring.
type TimingEvent struct {
	EventType uint8
	OID       uint8  // servo channel, pin, source or bank
	Clock     uint32 // Millis when recorded
	Value1    uint32
	Value2    uint32
}

// Timing ring event codes. Zero marks an empty slot.
const (
	EvtServoPulse = 1 // OID = channel, v1 = pulse ticks, v2 = ticks spent this frame
	EvtServoGap   = 2 // v1 = gap ticks, v2 = ticks spent this frame
	EvtToneStop   = 3 // OID = pin
	EvtExternal   = 4 // OID = source
	EvtPinChange  = 5 // OID = bank, v1 = PCMSK
	EvtSoftTimer  = 6 // OID = pin, v1 = value
)

const TimingRingSize = 32

var eventNames = [...]string{
	EvtServoPulse: "SERVO_PULSE",
	EvtServoGap:   "SERVO_GAP",
	EvtToneStop:   "TONE_STOP",
	EvtExternal:   "EXT_INT",
	EvtPinChange:  "PCINT",
	EvtSoftTimer:  "SOFT_TIMER",
}

var (
	debugPrintln DebugWriter = func(string) {}

	// Off until set_debug enable=1.
	debugEnabled bool

	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
)

// SetDebugWriter redirects debug output, typically to the UART.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes msg when debug output is enabled. Never call it from
// an interrupt vector.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTiming stores an event in the ring, overwriting the oldest. It
// neither allocates nor formats, so vectors may call it.
func RecordTiming(eventType, oid uint8, clock, value1, value2 uint32) {
	timingRing[timingRingHead] = TimingEvent{
		EventType: eventType,
		OID:       oid,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (timingRingHead + 1) % TimingRingSize
}

// TimingEvents returns the recorded events, oldest first.
func TimingEvents() []TimingEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	out := make([]TimingEvent, 0, TimingRingSize)
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(timingRingHead+i)%TimingRingSize]
		if evt.EventType != 0 {
			out = append(out, evt)
		}
	}
	return out
}

func eventName(code uint8) string {
	if int(code) < len(eventNames) && eventNames[code] != "" {
		return eventNames[code]
	}
	return "UNKNOWN"
}

// DumpTimingRing writes the ring to the debug writer regardless of the
// enable flag.
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[TIMING] dump")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + eventName(evt.EventType) +
			" oid=" + utoa(uint32(evt.OID)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] end")
}

func ClearTimingRing() {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	timingRing = [TimingRingSize]TimingEvent{}
	timingRingHead = 0
}
