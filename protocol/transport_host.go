package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrAckTimeout      = errors.New("ack timeout")
	ErrNak             = errors.New("frame rejected by board")
	ErrTransportClosed = errors.New("transport closed")
	ErrMessageTooLong  = errors.New("message too long")
)

// ResponseHandler is called from the read loop for every response frame.
type ResponseHandler func(cmdID uint16, data *[]byte) error

// HostTransport is the host side of the framing. It sends one command frame
// at a time, waits for the board's ACK and queues response frames.
type HostTransport struct {
	port io.ReadWriteCloser

	currentSeq   uint32 // sequence of the next frame sent, 0x10-0x1F
	synchronized uint32

	inputBuffer *FifoBuffer

	ackChan      chan *Message
	responseChan chan *Message

	handlerMu       sync.Mutex
	responseHandler ResponseHandler

	writeMutex sync.Mutex

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// Message is one frame received from the board.
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte
	CRC      uint16
}

// CommandID decodes the id at the start of a response payload.
func (m *Message) CommandID() (uint16, []byte, error) {
	data := m.Payload
	id, err := DecodeVLQUint(&data)
	return uint16(id), data, err
}

// NewHostTransport starts reading from port in the background.
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		currentSeq:   MessageDest,
		synchronized: 1,
		inputBuffer:  NewFifoBuffer(512),
		ackChan:      make(chan *Message, 4),
		responseChan: make(chan *Message, 16),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// SendCommand sends a command and waits up to two seconds for the ACK.
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandWithTimeout(cmdID, args, 2*time.Second)
}

// SendCommandWithTimeout sends a command and waits for the ACK. Nothing is
// retried; a lost frame surfaces as ErrAckTimeout or ErrNak.
func (t *HostTransport) SendCommandWithTimeout(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	seq := uint8(atomic.LoadUint32(&t.currentSeq))
	msg, err := BuildFrame(seq, cmdID, args)
	if err != nil {
		return err
	}
	if err := t.writeMessage(msg); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	next := ((seq + 1) & MessageSeqMask) | MessageDest
	if err := t.waitForAck(next, timeout); err != nil {
		return err
	}
	atomic.StoreUint32(&t.currentSeq, uint32(next))
	return nil
}

// BuildFrame encodes one complete frame carrying cmdID and its arguments.
func BuildFrame(seq uint8, cmdID uint16, args func(output OutputBuffer)) ([]byte, error) {
	scratch := NewScratchOutput()
	scratch.Output([]byte{0, seq})
	EncodeVLQUint(scratch, uint32(cmdID))
	if args != nil {
		args(scratch)
	}

	msgLen := scratch.CurPosition() + MessageTrailerSize
	if msgLen > MessageLengthMax {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLong, msgLen, MessageLengthMax)
	}
	scratch.Update(MessagePositionLen, uint8(msgLen))
	crc := CRC16(scratch.Result())
	scratch.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})

	out := make([]byte, msgLen)
	copy(out, scratch.Result())
	return out, nil
}

func (t *HostTransport) writeMessage(msg []byte) error {
	n, err := t.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return fmt.Errorf("short write: %d/%d bytes", n, len(msg))
	}
	return nil
}

// waitForAck waits for an ACK carrying want. An ACK with any other sequence
// is the board asking for a different frame.
func (t *HostTransport) waitForAck(want uint8, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ack := <-t.ackChan:
		if ack.Sequence != want {
			return fmt.Errorf("%w: board expects 0x%02x, want 0x%02x", ErrNak, ack.Sequence, want)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrAckTimeout, timeout)
	case <-t.stopChan:
		return ErrTransportClosed
	}
}

// ReceiveResponse returns the next response frame.
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (*Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-t.responseChan:
		return resp, nil
	case <-timer.C:
		return nil, fmt.Errorf("response timeout after %v", timeout)
	case <-t.stopChan:
		return nil, ErrTransportClosed
	}
}

// Query sends a command and returns the payload of the first response with
// id respID, after the id. Other responses received meanwhile are dropped.
func (t *HostTransport) Query(cmdID uint16, args func(output OutputBuffer), respID uint16, timeout time.Duration) ([]byte, error) {
	t.drainResponses()
	if err := t.SendCommandWithTimeout(cmdID, args, timeout); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("no response %d within %v", respID, timeout)
		}
		msg, err := t.ReceiveResponse(remaining)
		if err != nil {
			return nil, err
		}
		id, rest, err := msg.CommandID()
		if err != nil {
			continue
		}
		if id == respID {
			return rest, nil
		}
	}
}

func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	t.handlerMu.Lock()
	defer t.handlerMu.Unlock()
	t.responseHandler = handler
}

func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buf := make([]byte, 256)
	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buf)
		if n > 0 {
			t.inputBuffer.Write(buf[:n])
			t.processMessages()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// processMessages splits the input into frames, resynchronizing on the sync
// byte after a bad one.
func (t *HostTransport) processMessages() {
	data := t.inputBuffer.Data()

	for len(data) > 0 {
		if atomic.LoadUint32(&t.synchronized) == 0 {
			i := 0
			for i < len(data) && data[i] != MessageValueSync {
				i++
			}
			if i == len(data) {
				data = nil
				break
			}
			data = data[i+1:]
			atomic.StoreUint32(&t.synchronized, 1)
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
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			atomic.StoreUint32(&t.synchronized, 0)
			continue
		}
		if len(data) < msgLen {
			break
		}
		if !frameValid(data[:msgLen]) {
			atomic.StoreUint32(&t.synchronized, 0)
			continue
		}

		payload := make([]byte, msgLen-MessageHeaderSize-MessageTrailerSize)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		t.dispatchMessage(&Message{
			Length:   uint8(msgLen),
			Sequence: data[MessagePositionSeq],
			Payload:  payload,
			CRC:      uint16(data[msgLen-MessageTrailerCRC])<<8 | uint16(data[msgLen-MessageTrailerCRC+1]),
		})
		data = data[msgLen:]
	}

	if consumed := t.inputBuffer.Available() - len(data); consumed > 0 {
		t.inputBuffer.Pop(consumed)
	}
}

// dispatchMessage routes empty frames to the ACK channel and everything else
// to the handler and the response queue. A full response queue drops its
// oldest entry.
func (t *HostTransport) dispatchMessage(msg *Message) {
	if len(msg.Payload) == 0 {
		select {
		case t.ackChan <- msg:
		default:
		}
		return
	}

	t.handlerMu.Lock()
	handler := t.responseHandler
	t.handlerMu.Unlock()
	if handler != nil {
		if id, rest, err := msg.CommandID(); err == nil {
			_ = handler(id, &rest)
		}
	}

	for {
		select {
		case t.responseChan <- msg:
			return
		default:
		}
		select {
		case <-t.responseChan:
		default:
		}
	}
}

func (t *HostTransport) drainResponses() {
	for {
		select {
		case <-t.responseChan:
		default:
			return
		}
	}
}

// Close stops the read loop and closes the port. The port is closed first so
// a blocked Read returns.
func (t *HostTransport) Close() error {
	var err error
	t.stopOnce.Do(func() {
		close(t.stopChan)
		if t.port != nil {
			err = t.port.Close()
		}
		<-t.doneChan
	})
	return err
}

// Reset restarts the sequence at 0x10 and drops anything queued. The board
// treats the next frame as a host restart.
func (t *HostTransport) Reset() {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	atomic.StoreUint32(&t.synchronized, 1)
	atomic.StoreUint32(&t.currentSeq, MessageDest)
	for {
		select {
		case <-t.ackChan:
			continue
		default:
		}
		break
	}
	t.drainResponses()
}

// CurrentSequence returns the sequence the next frame will carry.
func (t *HostTransport) CurrentSequence() uint8 {
	return uint8(atomic.LoadUint32(&t.currentSeq))
}
