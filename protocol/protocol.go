// Package protocol implements the framed command protocol spoken between the
// board and the host: VLQ-encoded command ids and arguments inside frames of
// length, sequence, payload, CRC16 and a sync byte.
package protocol

const Version = "0.1.0"

const (
	// MessageMax is the size of the board's output scratch buffer: room for
	// an ACK plus a few responses.
	MessageMax     = 192
	MessageMin     = 5
	MessageHeader  = 2
	MessageTrailer = 3

	MessageSeqMask  = 0x0F
	MessageSeqShift = 4
)
