package core

import (
	"unohal/atmega"
	"unohal/protocol"
)

// QueuedOutSlots is how many queue_digital_out requests can wait at once.
const QueuedOutSlots = 8

type queuedOut struct {
	timer SoftTimer
	pin   uint8
	value bool
	busy  bool
}

var (
	globalTransport *protocol.Transport

	// servo channels configured by the host, indexed by oid
	servoOIDs  [MaxServos]*Servo
	queuedOuts [QueuedOutSlots]queuedOut
	isShutdown bool
)

// InitCommands registers the command set and the board constants, then
// renders the dictionary. identify_response and identify must stay at ids 0
// and 1: the host asks for the dictionary before it has one.
func InitCommands() {
	RegisterResponse("identify_response", "offset=%u data=%*s")
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify)

	RegisterCommand("get_clock", "", handleGetClock)
	RegisterCommand("digital_write", "pin=%c value=%c", handleDigitalWrite)
	RegisterCommand("digital_read", "pin=%c", handleDigitalRead)
	RegisterCommand("queue_digital_out", "pin=%c clock=%u value=%c", handleQueueDigitalOut)
	RegisterCommand("config_pwm", "pin=%c preset=%c", handleConfigPWM)
	RegisterCommand("set_pwm", "pin=%c duty=%c", handleSetPWM)
	RegisterCommand("tone", "pin=%c freq=%u duration=%u", handleTone)
	RegisterCommand("no_tone", "pin=%c", handleNoTone)
	RegisterCommand("config_servo", "oid=%c pin=%c min_us=%hu max_us=%hu", handleConfigServo)
	RegisterCommand("servo_write", "oid=%c angle=%hu", handleServoWrite)
	RegisterCommand("servo_write_us", "oid=%c us=%hu", handleServoWriteUS)
	RegisterCommand("servo_detach", "oid=%c", handleServoDetach)
	RegisterCommand("query_servo", "oid=%c", handleQueryServo)
	RegisterCommand("emergency_stop", "", handleEmergencyStop)
	RegisterCommand("dump_timing", "", handleDumpTiming)
	RegisterCommand("set_debug", "enable=%c", handleSetDebug)

	RegisterResponse("clock", "millis=%u micros=%u")
	RegisterResponse("pin_state", "pin=%c value=%c")
	RegisterResponse("servo_state", "oid=%c us=%hu angle=%hu attached=%c")
	RegisterResponse("shutdown", "")

	RegisterConstant("MCU", "atmega328p")
	RegisterConstant("CLOCK_FREQ", uint32(atmega.CPUFrequency))
	RegisterConstant("SERVO_MAX", uint8(MaxServos))
	RegisterConstant("PWM_MAX", uint8(255))
	RegisterEnumeration("pin", pinNames())

	for i := range queuedOuts {
		q := &queuedOuts[i]
		q.timer.Handler = func(*SoftTimer) uint8 {
			_ = DigitalWrite(q.pin, q.value)
			RecordTiming(EvtSoftTimer, q.pin, Millis(), boolArg(q.value), 0)
			q.busy = false
			return SF_DONE
		}
	}

	globalDictionary.BuildDictionary()
}

// SetGlobalTransport sets the transport SendResponse writes to.
func SetGlobalTransport(t *protocol.Transport) {
	globalTransport = t
}

// SendResponse encodes a registered response. It is a no-op until a
// transport is set, and panics on a name that was never registered.
func SendResponse(responseName string, args func(output protocol.OutputBuffer)) {
	if globalTransport == nil {
		return
	}
	cmd, ok := globalRegistry.GetCommandByName(responseName)
	if !ok {
		panic("response not registered: " + responseName)
	}
	globalTransport.SendCommand(cmd.ID, args)
}

// IsShutdown reports whether emergency_stop has run. Output commands are
// refused until the board is reset.
func IsShutdown() bool {
	return isShutdown
}

// decodeArgs reads n VLQ arguments from the frame.
func decodeArgs(data *[]byte, n int) ([4]uint32, error) {
	var args [4]uint32
	for i := 0; i < n; i++ {
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return args, err
		}
		args[i] = v
	}
	return args, nil
}

func boolArg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// pinArg narrows a pin argument, rejecting numbers past the last pin
// instead of letting them wrap onto a real one.
func pinArg(v uint32) (uint8, error) {
	if v >= atmega.NumPins {
		return 0, ErrInvalidPin
	}
	return uint8(v), nil
}

func byteArg(v uint32) (uint8, error) {
	if v > 0xFF {
		return 0, ErrArgRange
	}
	return uint8(v), nil
}

func wordArg(v uint32) (uint16, error) {
	if v > 0xFFFF {
		return 0, ErrArgRange
	}
	return uint16(v), nil
}

func servoForOID(oid uint32) (*Servo, error) {
	if oid >= MaxServos || servoOIDs[oid] == nil {
		return nil, ErrInvalidOID
	}
	return servoOIDs[oid], nil
}

func handleIdentify(data *[]byte) error {
	args, err := decodeArgs(data, 2)
	if err != nil {
		return err
	}
	offset := args[0]
	chunk := globalDictionary.GetChunk(offset, uint8(args[1]))
	SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
	return nil
}

func handleGetClock(data *[]byte) error {
	ms, us := Millis(), Micros()
	SendResponse("clock", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, ms)
		protocol.EncodeVLQUint(output, us)
	})
	return nil
}

func handleDigitalWrite(data *[]byte) error {
	args, err := decodeArgs(data, 2)
	if err != nil {
		return err
	}
	if isShutdown {
		return ErrShutdown
	}
	pin, err := pinArg(args[0])
	if err != nil {
		return err
	}
	if err := PinMode(pin, Output); err != nil {
		return err
	}
	return DigitalWrite(pin, args[1] != 0)
}

func handleDigitalRead(data *[]byte) error {
	args, err := decodeArgs(data, 1)
	if err != nil {
		return err
	}
	pin, err := pinArg(args[0])
	if err != nil {
		return err
	}
	level, err := DigitalRead(pin)
	if err != nil {
		return err
	}
	SendResponse("pin_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(pin))
		protocol.EncodeVLQUint(output, boolArg(level))
	})
	return nil
}

// handleQueueDigitalOut sets a pin once Millis reaches clock. The pin is
// switched to output right away, holding its current level.
func handleQueueDigitalOut(data *[]byte) error {
	args, err := decodeArgs(data, 3)
	if err != nil {
		return err
	}
	if isShutdown {
		return ErrShutdown
	}
	pin, err := pinArg(args[0])
	if err != nil {
		return err
	}

	for i := range queuedOuts {
		q := &queuedOuts[i]
		if q.busy {
			continue
		}
		if err := PinMode(pin, Output); err != nil {
			return err
		}
		q.busy = true
		q.pin = pin
		q.value = args[2] != 0
		q.timer.WakeTime = args[1]
		ScheduleTimer(&q.timer)
		return nil
	}
	return ErrQueueFull
}

func handleConfigPWM(data *[]byte) error {
	args, err := decodeArgs(data, 2)
	if err != nil {
		return err
	}
	if isShutdown {
		return ErrShutdown
	}
	pin, err := pinArg(args[0])
	if err != nil {
		return err
	}
	preset, err := byteArg(args[1])
	if err != nil {
		return err
	}
	return MustPWM().ConfigurePWM(GPIOPin(pin), PWMPreset(preset))
}

func handleSetPWM(data *[]byte) error {
	args, err := decodeArgs(data, 2)
	if err != nil {
		return err
	}
	if isShutdown {
		return ErrShutdown
	}
	pin, err := pinArg(args[0])
	if err != nil {
		return err
	}
	duty, err := byteArg(args[1])
	if err != nil {
		return err
	}
	return MustPWM().SetDutyCycle(GPIOPin(pin), duty)
}

func handleTone(data *[]byte) error {
	args, err := decodeArgs(data, 3)
	if err != nil {
		return err
	}
	if isShutdown {
		return ErrShutdown
	}
	pin, err := pinArg(args[0])
	if err != nil {
		return err
	}
	ok, err := ToneFor(pin, args[1], args[2])
	if err != nil {
		return err
	}
	if !ok {
		DebugPrintln("[TONE] frequency out of range: " + utoa(args[1]))
	}
	return nil
}

func handleNoTone(data *[]byte) error {
	args, err := decodeArgs(data, 1)
	if err != nil {
		return err
	}
	pin, err := pinArg(args[0])
	if err != nil {
		return err
	}
	return NoTone(pin)
}

// handleConfigServo allocates the channel on first use of an oid and
// (re)attaches it with the given limits.
func handleConfigServo(data *[]byte) error {
	args, err := decodeArgs(data, 4)
	if err != nil {
		return err
	}
	if isShutdown {
		return ErrShutdown
	}
	oid := args[0]
	if oid >= MaxServos {
		return ErrInvalidOID
	}
	pin, err := pinArg(args[1])
	if err != nil {
		return err
	}
	minUS, err := wordArg(args[2])
	if err != nil {
		return err
	}
	maxUS, err := wordArg(args[3])
	if err != nil {
		return err
	}
	if servoOIDs[oid] == nil {
		servoOIDs[oid] = NewServo()
	}
	return servoOIDs[oid].AttachWithLimits(pin, minUS, maxUS)
}

func handleServoWrite(data *[]byte) error {
	args, err := decodeArgs(data, 2)
	if err != nil {
		return err
	}
	s, err := servoForOID(args[0])
	if err != nil {
		return err
	}
	angle, err := wordArg(args[1])
	if err != nil {
		return err
	}
	s.Write(angle)
	return nil
}

func handleServoWriteUS(data *[]byte) error {
	args, err := decodeArgs(data, 2)
	if err != nil {
		return err
	}
	s, err := servoForOID(args[0])
	if err != nil {
		return err
	}
	us, err := wordArg(args[1])
	if err != nil {
		return err
	}
	s.WriteMicroseconds(us)
	return nil
}

func handleServoDetach(data *[]byte) error {
	args, err := decodeArgs(data, 1)
	if err != nil {
		return err
	}
	s, err := servoForOID(args[0])
	if err != nil {
		return err
	}
	s.Detach()
	return nil
}

func handleQueryServo(data *[]byte) error {
	args, err := decodeArgs(data, 1)
	if err != nil {
		return err
	}
	oid := args[0]
	s, err := servoForOID(oid)
	if err != nil {
		return err
	}
	us, angle, attached := s.ReadMicroseconds(), s.Read(), s.Attached()
	SendResponse("servo_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, oid)
		protocol.EncodeVLQUint(output, uint32(us))
		protocol.EncodeVLQUint(output, uint32(angle))
		protocol.EncodeVLQUint(output, boolArg(attached))
	})
	return nil
}

// handleEmergencyStop silences the tone, detaches every servo and drops
// queued outputs, then refuses output commands.
func handleEmergencyStop(data *[]byte) error {
	EmergencyStop()
	SendResponse("shutdown", nil)
	return nil
}

// EmergencyStop puts every output this package drives into a safe state.
func EmergencyStop() {
	isShutdown = true
	if pin, ok := ToneActive(); ok {
		_ = NoTone(pin)
	}
	for _, s := range servoOIDs {
		if s != nil {
			s.Detach()
		}
	}
	for i := range queuedOuts {
		CancelTimer(&queuedOuts[i].timer)
		queuedOuts[i].busy = false
	}
}

func handleDumpTiming(data *[]byte) error {
	DumpTimingRing()
	return nil
}

func handleSetDebug(data *[]byte) error {
	args, err := decodeArgs(data, 1)
	if err != nil {
		return err
	}
	SetDebugEnabled(args[0] != 0)
	return nil
}
