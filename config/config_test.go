package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sample = `
device: /dev/ttyUSB1
servos:
  - name: pan
    pin: 9
  - name: tilt
    pin: 10
    min_us: 1000
    max_us: 2000
tone:
  pin: 11
`

func TestParseAppliesDefaults(t *testing.T) {
	p, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if p.Device != "/dev/ttyUSB1" {
		t.Errorf("Expected /dev/ttyUSB1, got %s", p.Device)
	}
	if p.Baud != 115200 || p.ReadTimeoutMS != 100 {
		t.Errorf("Expected default baud and timeout, got %d and %d", p.Baud, p.ReadTimeoutMS)
	}
	if p.Servos[0].MinUS != 544 || p.Servos[0].MaxUS != 2400 {
		t.Errorf("Expected default limits, got %d-%d", p.Servos[0].MinUS, p.Servos[0].MaxUS)
	}
	if p.Tone.Pin != 11 || p.Tone.FrequencyHz != 440 {
		t.Errorf("Expected tone on 11 at 440 Hz, got %d at %d", p.Tone.Pin, p.Tone.FrequencyHz)
	}
}

func TestServoOID(t *testing.T) {
	p, _ := Parse([]byte(sample))
	oid, s, ok := p.ServoOID("tilt")
	if !ok || oid != 1 || s.Pin != 10 {
		t.Errorf("Expected tilt at oid 1 on pin 10, got %d %+v %v", oid, s, ok)
	}
	if _, _, ok := p.ServoOID("roll"); ok {
		t.Errorf("Expected roll to be unknown")
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want error
	}{
		{"pin range", "servos: [{pin: 20}]", ErrInvalidPin},
		{"uart pin", "servos: [{pin: 1}]", ErrReservedPin},
		{"inverted limits", "servos: [{pin: 9, min_us: 2000, max_us: 1000}]", ErrServoLimits},
		{"narrow limits", "servos: [{pin: 9, min_us: 1000, max_us: 1100}]", ErrServoLimits},
		{"duplicate", "servos: [{name: a, pin: 9}, {name: a, pin: 10}]", ErrDuplicateName},
		{"tone pin", "tone: {pin: 25}", ErrInvalidPin},
		{"tone frequency", "tone: {frequency_hz: 20}", ErrToneFrequency},
	}
	for _, tc := range cases {
		if _, err := Parse([]byte(tc.yaml)); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestTooManyServos(t *testing.T) {
	p := Default()
	for i := 0; i < 13; i++ {
		p.Servos = append(p.Servos, Servo{Pin: 9, MinUS: 544, MaxUS: 2400})
	}
	if err := p.Validate(); !errors.Is(err, ErrTooManyServos) {
		t.Errorf("Expected ErrTooManyServos, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uno.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Servos) != 2 {
		t.Errorf("Expected 2 servos, got %d", len(p.Servos))
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Expected an error for a missing file")
	}
	if _, err := Parse([]byte("servos: {")); err == nil {
		t.Errorf("Expected a YAML syntax error")
	}
}
