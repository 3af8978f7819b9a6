// Package serial opens the link to the board's UART.
package serial

import (
	"io"

	"unohal/config"
)

// Port is a serial link. The native implementation wraps tarm/serial; tests
// use any io.ReadWriteCloser through the same interface.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port settings.
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate of the ATmega UART; the Uno's USB bridge honours it
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the Uno defaults for device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// FromProfile takes the link settings of a board profile.
func FromProfile(p *config.Profile) *Config {
	return &Config{
		Device:      p.Device,
		Baud:        p.Baud,
		ReadTimeout: p.ReadTimeoutMS,
	}
}
