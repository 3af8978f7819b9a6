// Package config loads the YAML board profile used by the host tool.
package config

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"unohal/atmega"
	"unohal/core"
)

var (
	ErrInvalidPin    = errors.New("pin out of range")
	ErrReservedPin   = errors.New("pin is used by the serial link")
	ErrServoLimits   = errors.New("invalid servo limits")
	ErrDuplicateName = errors.New("duplicate servo name")
	ErrTooManyServos = errors.New("too many servos")
	ErrToneFrequency = errors.New("tone frequency out of range")
)

// Profile describes one board and what is wired to it.
type Profile struct {
	Device        string  `yaml:"device"`
	Baud          int     `yaml:"baud"`
	ReadTimeoutMS int     `yaml:"read_timeout_ms"`
	Servos        []Servo `yaml:"servos"`
	Tone          Tone    `yaml:"tone"`
}

// Servo is a named servo channel. Its position in the list is the oid the
// host configures it with.
type Servo struct {
	Name  string `yaml:"name"`
	Pin   uint8  `yaml:"pin"`
	MinUS uint16 `yaml:"min_us"`
	MaxUS uint16 `yaml:"max_us"`
}

// Tone holds the defaults of the tone command.
type Tone struct {
	Pin         uint8  `yaml:"pin"`
	FrequencyHz uint32 `yaml:"frequency_hz"`
}

// Load reads and validates a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a YAML profile, fills in defaults and validates it.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	applyDefaults(&p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Default returns the profile used when no file is given.
func Default() *Profile {
	p := &Profile{}
	applyDefaults(p)
	return p
}

func applyDefaults(p *Profile) {
	if p.Device == "" {
		p.Device = "/dev/ttyACM0"
	}
	if p.Baud == 0 {
		p.Baud = 115200
	}
	if p.ReadTimeoutMS == 0 {
		p.ReadTimeoutMS = 100
	}
	for i := range p.Servos {
		s := &p.Servos[i]
		if s.MinUS == 0 {
			s.MinUS = core.MinPulseWidth
		}
		if s.MaxUS == 0 {
			s.MaxUS = core.MaxPulseWidth
		}
	}
	// D0 is the UART, so zero means unset
	if p.Tone.Pin == 0 {
		p.Tone.Pin = 8
	}
	if p.Tone.FrequencyHz == 0 {
		p.Tone.FrequencyHz = 440
	}
}

// Validate checks pins, servo limits and names.
func (p *Profile) Validate() error {
	if len(p.Servos) > core.MaxServos {
		return fmt.Errorf("%w: %d, max %d", ErrTooManyServos, len(p.Servos), core.MaxServos)
	}
	var names []string
	for i, s := range p.Servos {
		if err := checkPin(s.Pin); err != nil {
			return fmt.Errorf("servo %d (%s): %w", i, s.Name, err)
		}
		if s.MaxUS <= s.MinUS || s.MaxUS-s.MinUS < 180 || s.MaxUS > core.RefreshInterval {
			return fmt.Errorf("servo %d (%s): %w: %d-%d µs", i, s.Name, ErrServoLimits, s.MinUS, s.MaxUS)
		}
		if s.Name == "" {
			continue
		}
		if slices.Contains(names, s.Name) {
			return fmt.Errorf("%w: %s", ErrDuplicateName, s.Name)
		}
		names = append(names, s.Name)
	}
	if err := checkPin(p.Tone.Pin); err != nil {
		return fmt.Errorf("tone: %w", err)
	}
	if p.Tone.FrequencyHz < core.MinToneFrequency || p.Tone.FrequencyHz > core.MaxToneFrequency {
		return fmt.Errorf("%w: %d Hz", ErrToneFrequency, p.Tone.FrequencyHz)
	}
	return nil
}

func checkPin(pin uint8) error {
	if pin >= atmega.NumPins {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	if pin <= 1 {
		return fmt.Errorf("%w: D%d", ErrReservedPin, pin)
	}
	return nil
}

// ServoOID returns the oid and settings of the servo called name.
func (p *Profile) ServoOID(name string) (uint8, Servo, bool) {
	i := slices.IndexFunc(p.Servos, func(s Servo) bool { return s.Name == name })
	if i < 0 {
		return 0, Servo{}, false
	}
	return uint8(i), p.Servos[i], true
}
