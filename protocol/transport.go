package protocol

import "sync/atomic"

// Frame layout: len seq payload... crc_hi crc_lo sync.
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
)

// CommandHandler decodes and runs one command of a frame. It must consume
// exactly its own arguments from data.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the board side of the framing: it validates incoming frames,
// acknowledges them and encodes responses into output.
type Transport struct {
	synchronized  uint32 // 0 or 1
	nextSequence  uint32 // next sequence expected from the host, 0x10-0x1F
	output        OutputBuffer
	handler       CommandHandler
	resetCallback func()
	flushCallback func()
	lastErr       error
}

func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		synchronized: 1,
		nextSequence: MessageDest,
		output:       output,
		handler:      handler,
	}
}

// Receive consumes every complete frame in input and leaves any partial
// frame for the next call.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.Synchronized() {
			data = t.resync(data)
			continue
		}
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		seq := data[MessagePositionSeq]
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax || seq&^MessageSeqMask != MessageDest {
			t.setSynchronized(false)
			continue
		}
		if len(data) < msgLen {
			break
		}
		if !frameValid(data[:msgLen]) {
			t.setSynchronized(false)
			continue
		}

		frame := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]
		t.accept(seq, frame)
	}

	if consumed := input.Available() - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}

// resync drops bytes up to and including the next sync byte. Finding one
// restores synchronization and tells the host which sequence comes next.
func (t *Transport) resync(data []byte) []byte {
	for i, b := range data {
		if b == MessageValueSync {
			t.setSynchronized(true)
			t.encodeAckNak()
			return data[i+1:]
		}
	}
	return nil
}

// frameValid checks the trailing sync byte and the CRC of a whole frame.
func frameValid(msg []byte) bool {
	n := len(msg)
	if msg[n-MessageTrailerSync] != MessageValueSync {
		return false
	}
	want := uint16(msg[n-MessageTrailerCRC])<<8 | uint16(msg[n-MessageTrailerCRC+1])
	return CRC16(msg[:n-MessageTrailerSize]) == want
}

// accept runs a frame whose sequence is the expected one. Every frame is
// answered with the next expected sequence, which is an ACK when the frame
// was accepted and a NAK otherwise. A frame carrying MessageDest while
// another sequence was expected means the host restarted.
func (t *Transport) accept(seq uint8, frame []byte) {
	expected := uint8(atomic.LoadUint32(&t.nextSequence))
	if seq == MessageDest && expected != MessageDest {
		atomic.StoreUint32(&t.nextSequence, MessageDest)
		expected = MessageDest
		if t.resetCallback != nil {
			t.resetCallback()
		}
	}
	if seq == expected {
		next := ((seq + 1) & MessageSeqMask) | MessageDest
		atomic.StoreUint32(&t.nextSequence, uint32(next))
		t.lastErr = t.parseFrame(frame)
	}
	t.encodeAckNak()
}

// LastError returns the error the last accepted frame stopped on, or nil
// when every command in it ran.
func (t *Transport) LastError() error {
	return t.lastErr
}

// parseFrame runs each command in the frame. A handler panic desyncs the
// transport instead of taking the board down.
func (t *Transport) parseFrame(frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.setSynchronized(false)
			err = ErrHandlerPanic
		}
	}()

	for len(frame) > 0 {
		cmdID, err := DecodeVLQUint(&frame)
		if err != nil {
			t.setSynchronized(false)
			return err
		}
		if t.handler == nil {
			continue
		}
		if err := t.handler(uint16(cmdID), &frame); err != nil {
			// the rest of the frame cannot be decoded once a handler bails
			return err
		}
	}
	return nil
}

// encodeAckNak sends an empty frame carrying the next expected sequence and
// flushes it ahead of any response.
func (t *Transport) encodeAckNak() {
	ns := uint8(atomic.LoadUint32(&t.nextSequence))
	crc := CRC16([]byte{MessageLengthMin, ns})
	t.output.Output([]byte{MessageLengthMin, ns, uint8(crc >> 8), uint8(crc), MessageValueSync})
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame writes one frame whose payload is produced by frameData.
// Responses carry the same sequence as the ACK that precedes them.
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()
	seq := uint8(atomic.LoadUint32(&t.nextSequence))
	t.output.Output([]byte{0, seq})

	frameData(t.output)

	t.output.Update(cursor, uint8(len(t.output.DataSince(cursor))+MessageTrailerSize))
	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
}

// SendCommand encodes cmdID followed by its arguments as one frame.
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset forgets the sequence state, as after the serial link reopens.
func (t *Transport) Reset() {
	t.setSynchronized(true)
	atomic.StoreUint32(&t.nextSequence, MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback is called whenever the host restarts its sequence.
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback is called after every ACK so it reaches the UART before
// the responses of the frame.
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}

func (t *Transport) Synchronized() bool {
	return atomic.LoadUint32(&t.synchronized) != 0
}

func (t *Transport) setSynchronized(val bool) {
	var v uint32
	if val {
		v = 1
	}
	atomic.StoreUint32(&t.synchronized, v)
}
