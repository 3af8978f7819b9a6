package core

// RegisterBus gives core code access to the memory-mapped I/O registers.
// Addresses are data-space addresses as listed in package atmega.
// The board backs it with volatile loads and stores, host tests with sim.Board.
type RegisterBus interface {
	// Load reads one register
	Load(addr uint16) uint8

	// Store writes one register
	Store(addr uint16, value uint8)
}

// Global singleton used by core code.
var registerBus RegisterBus

// SetRegisterBus is called by target-specific code to register its bus.
func SetRegisterBus(b RegisterBus) {
	registerBus = b
}

// MustBus returns the configured bus or panics if missing.
func MustBus() RegisterBus {
	if registerBus == nil {
		panic("register bus not configured")
	}
	return registerBus
}

func regGet(addr uint16) uint8 {
	return MustBus().Load(addr)
}

func regSet(addr uint16, value uint8) {
	MustBus().Store(addr, value)
}

// regModify clears then sets bits with a single store.
// Never use it on flag registers: they clear on writing one.
func regModify(addr uint16, clear, set uint8) {
	bus := MustBus()
	bus.Store(addr, bus.Load(addr)&^clear|set)
}

func regSetBits(addr uint16, mask uint8) {
	regModify(addr, 0, mask)
}

func regClearBits(addr uint16, mask uint8) {
	regModify(addr, mask, 0)
}

// 16-bit registers share one TEMP latch: the high byte is written first and
// the low byte read first. Callers hold interrupts off so no ISR can touch
// TEMP in between.
func regGet16(low uint16) uint16 {
	bus := MustBus()
	lo := bus.Load(low)
	hi := bus.Load(low + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func regSet16(low uint16, value uint16) {
	bus := MustBus()
	bus.Store(low+1, uint8(value>>8))
	bus.Store(low, uint8(value))
}
