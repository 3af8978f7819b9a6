// Package board is the host-side client of the firmware: it fetches the
// dictionary and sends commands by name.
package board

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"unohal/host/serial"
	"unohal/protocol"
)

var (
	ErrNotConnected   = errors.New("not connected to board")
	ErrNoDictionary   = errors.New("dictionary not loaded")
	ErrUnknownMessage = errors.New("unknown command")
	ErrArgCount       = errors.New("wrong number of arguments")
)

// identify and identify_response have fixed ids so the dictionary can be
// fetched before it is known.
const (
	identifyID         = 1
	identifyResponseID = 0
	identifyChunk      = 40
)

// DefaultTimeout bounds each command round trip.
var DefaultTimeout = time.Second

// Board is a connection to one Uno running the firmware.
type Board struct {
	transport *protocol.HostTransport

	dictionary     *Dictionary
	dictionaryData []byte

	commands  map[string]Message
	responses map[string]Message
}

// Dictionary is the parsed identify document.
type Dictionary struct {
	Version       string                    `json:"version"`
	BuildVersions string                    `json:"build_versions"`
	Config        map[string]string         `json:"config"`
	Commands      map[string]int            `json:"commands"`
	Responses     map[string]int            `json:"responses"`
	Enumerations  map[string]map[string]int `json:"enumerations,omitempty"`
}

// Message is one command or response of the dictionary.
type Message struct {
	ID     uint16
	Name   string
	Fields []string // argument names in wire order
}

// Connect opens the serial port described by cfg.
func Connect(cfg *serial.Config) (*Board, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	_ = port.Flush()
	return Open(port), nil
}

// Open runs the protocol over an already open link.
func Open(port io.ReadWriteCloser) *Board {
	return &Board{transport: protocol.NewHostTransport(port)}
}

func (b *Board) Close() error {
	if b.transport == nil {
		return nil
	}
	err := b.transport.Close()
	b.transport = nil
	return err
}

// RetrieveDictionary fetches the dictionary in chunks until the board
// returns an empty one, then parses it.
func (b *Board) RetrieveDictionary() error {
	if b.transport == nil {
		return ErrNotConnected
	}

	var buf bytes.Buffer
	for offset := uint32(0); ; {
		chunk, err := b.identify(offset)
		if err != nil {
			return fmt.Errorf("dictionary chunk at %d: %w", offset, err)
		}
		if len(chunk) == 0 {
			break
		}
		buf.Write(chunk)
		offset += uint32(len(chunk))
	}
	return b.LoadDictionary(buf.Bytes())
}

func (b *Board) identify(offset uint32) ([]byte, error) {
	payload, err := b.transport.Query(identifyID, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, offset)
		protocol.EncodeVLQUint(out, identifyChunk)
	}, identifyResponseID, DefaultTimeout)
	if err != nil {
		return nil, err
	}

	got, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, err
	}
	if got != offset {
		return nil, fmt.Errorf("offset mismatch: asked %d, got %d", offset, got)
	}
	return protocol.DecodeVLQBytes(&payload)
}

// LoadDictionary parses a dictionary document and indexes its messages by
// name.
func (b *Board) LoadDictionary(data []byte) error {
	dict := &Dictionary{}
	if err := json.Unmarshal(data, dict); err != nil {
		return fmt.Errorf("parse dictionary: %w", err)
	}
	b.dictionary = dict
	b.dictionaryData = data
	b.commands = index(dict.Commands)
	b.responses = index(dict.Responses)
	return nil
}

// index splits "name a=%u b=%c" signatures into a name and field list.
func index(entries map[string]int) map[string]Message {
	out := make(map[string]Message, len(entries))
	for sig, id := range entries {
		parts := strings.Fields(sig)
		m := Message{ID: uint16(id), Name: parts[0]}
		for _, f := range parts[1:] {
			name, _, _ := strings.Cut(f, "=")
			m.Fields = append(m.Fields, name)
		}
		out[m.Name] = m
	}
	return out
}

func (b *Board) Dictionary() *Dictionary {
	return b.dictionary
}

func (b *Board) RawDictionary() []byte {
	return b.dictionaryData
}

// CommandNames returns the command names sorted alphabetically.
func (b *Board) CommandNames() []string {
	names := maps.Keys(b.commands)
	slices.Sort(names)
	return names
}

// ResponseNames returns the response names sorted alphabetically.
func (b *Board) ResponseNames() []string {
	names := maps.Keys(b.responses)
	slices.Sort(names)
	return names
}

// Command looks up a command by name.
func (b *Board) Command(name string) (Message, error) {
	if b.dictionary == nil {
		return Message{}, ErrNoDictionary
	}
	m, ok := b.commands[name]
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrUnknownMessage, name)
	}
	return m, nil
}

func (b *Board) encode(name string, args []uint32) (Message, func(protocol.OutputBuffer), error) {
	if b.transport == nil {
		return Message{}, nil, ErrNotConnected
	}
	m, err := b.Command(name)
	if err != nil {
		return Message{}, nil, err
	}
	if len(args) != len(m.Fields) {
		return Message{}, nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArgCount, name, len(m.Fields), len(args))
	}
	return m, func(out protocol.OutputBuffer) {
		for _, a := range args {
			protocol.EncodeVLQUint(out, a)
		}
	}, nil
}

// Send runs a command that has no response.
func (b *Board) Send(name string, args ...uint32) error {
	m, enc, err := b.encode(name, args)
	if err != nil {
		return err
	}
	if err := b.transport.SendCommandWithTimeout(m.ID, enc, DefaultTimeout); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Query runs a command and decodes the named response into its fields.
func (b *Board) Query(name string, response string, args ...uint32) (map[string]uint32, error) {
	m, enc, err := b.encode(name, args)
	if err != nil {
		return nil, err
	}
	resp, ok := b.responses[response]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, response)
	}

	payload, err := b.transport.Query(m.ID, enc, resp.ID, DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out := make(map[string]uint32, len(resp.Fields))
	for _, f := range resp.Fields {
		v, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, fmt.Errorf("%s field %s: %w", response, f, err)
		}
		out[f] = v
	}
	return out, nil
}

// PinNumber resolves a pin name such as "D13" or "A0" through the "pin"
// enumeration.
func (b *Board) PinNumber(name string) (uint32, error) {
	if b.dictionary == nil {
		return 0, ErrNoDictionary
	}
	n, ok := b.dictionary.Enumerations["pin"][strings.ToUpper(name)]
	if !ok {
		return 0, fmt.Errorf("unknown pin %q", name)
	}
	return uint32(n), nil
}
