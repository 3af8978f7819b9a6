package core

import (
	"sync"

	"golang.org/x/exp/slices"

	"unohal/atmega"
)

// Constant is a named value the host can read from the dictionary.
type Constant struct {
	Name  string
	Value interface{}
}

// Enumeration maps names to consecutive values starting at zero. Empty
// names are skipped.
type Enumeration struct {
	Name   string
	Values []string
}

// Dictionary is the JSON document the host fetches with identify. It lists
// every command and response with its id, plus the board constants and
// enumerations.
type Dictionary struct {
	mu            sync.RWMutex
	constants     map[string]*Constant
	enumerations  map[string]*Enumeration
	commandReg    *CommandRegistry
	version       string
	buildVersions string
	cached        []byte
}

var globalDictionary = NewDictionary(globalRegistry)

func NewDictionary(cmdReg *CommandRegistry) *Dictionary {
	return &Dictionary{
		constants:     make(map[string]*Constant),
		enumerations:  make(map[string]*Enumeration),
		commandReg:    cmdReg,
		version:       "unohal-0.1.0",
		buildVersions: "tinygo-avr",
	}
}

func GetGlobalDictionary() *Dictionary {
	return globalDictionary
}

func RegisterConstant(name string, value interface{}) {
	globalDictionary.AddConstant(name, value)
}

func RegisterEnumeration(name string, values []string) {
	globalDictionary.AddEnumeration(name, values)
}

func (d *Dictionary) AddConstant(name string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = &Constant{Name: name, Value: value}
	d.cached = nil
}

func (d *Dictionary) AddEnumeration(name string, values []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enumerations[name] = &Enumeration{Name: name, Values: slices.Clone(values)}
	d.cached = nil
}

func (d *Dictionary) SetVersion(version string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version = version
	d.cached = nil
}

func (d *Dictionary) SetBuildVersions(versions string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buildVersions = versions
	d.cached = nil
}

// BuildDictionary renders and caches the document. Call it once every
// command is registered; later registrations are not picked up until the
// next call.
func (d *Dictionary) BuildDictionary() {
	entries := d.commandReg.Entries()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = d.render(entries)
	DebugPrintln("[DICT] " + utoa(uint32(len(d.cached))) + " bytes")
}

// Generate returns the cached document, rendering it first if needed.
func (d *Dictionary) Generate() []byte {
	d.mu.RLock()
	cached := d.cached
	d.mu.RUnlock()
	if cached != nil {
		return cached
	}
	d.BuildDictionary()
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// GetChunk returns up to count bytes of the document starting at offset.
// Reads past the end return an empty chunk, which tells the host it is done.
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Generate()
	if offset >= uint32(len(data)) {
		return []byte{}
	}
	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	return slices.Clone(data[offset:end])
}

func appendQuoted(b []byte, s string) []byte {
	b = append(b, '"')
	b = append(b, s...)
	return append(b, '"')
}

// render is called with d.mu held.
func (d *Dictionary) render(entries []*Command) []byte {
	b := make([]byte, 0, 1024)
	b = append(b, `{"version":`...)
	b = appendQuoted(b, d.version)
	b = append(b, `,"build_versions":`...)
	b = appendQuoted(b, d.buildVersions)

	b = append(b, `,"config":{`...)
	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	slices.Sort(names)
	for i, name := range names {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendQuoted(b, name)
		b = append(b, ':')
		b = appendQuoted(b, valueToString(d.constants[name].Value))
	}

	for _, section := range [2]struct {
		key       string
		responses bool
	}{{"commands", false}, {"responses", true}} {
		b = append(b, `},"`...)
		b = append(b, section.key...)
		b = append(b, `":{`...)
		first := true
		for _, cmd := range entries {
			if cmd.IsResponse() != section.responses {
				continue
			}
			if !first {
				b = append(b, ',')
			}
			first = false
			b = appendQuoted(b, cmd.Signature())
			b = append(b, ':')
			b = append(b, utoa(uint32(cmd.ID))...)
		}
	}
	b = append(b, '}')

	if len(d.enumerations) > 0 {
		b = append(b, `,"enumerations":{`...)
		names = names[:0]
		for name := range d.enumerations {
			names = append(names, name)
		}
		slices.Sort(names)
		for i, name := range names {
			if i > 0 {
				b = append(b, ',')
			}
			b = appendQuoted(b, name)
			b = append(b, `:{`...)
			first := true
			for v, value := range d.enumerations[name].Values {
				if value == "" {
					continue
				}
				if !first {
					b = append(b, ',')
				}
				first = false
				b = appendQuoted(b, value)
				b = append(b, ':')
				b = append(b, utoa(uint32(v))...)
			}
			b = append(b, '}')
		}
		b = append(b, '}')
	}
	return append(b, '}')
}

// pinNames is the "pin" enumeration: D0-D13 then A0-A5.
func pinNames() []string {
	names := make([]string, atmega.NumPins)
	for i := uint8(0); i < atmega.NumPins; i++ {
		if i < atmega.PinA0 {
			names[i] = "D" + utoa(uint32(i))
		} else {
			names[i] = "A" + utoa(uint32(i-atmega.PinA0))
		}
	}
	return names
}
