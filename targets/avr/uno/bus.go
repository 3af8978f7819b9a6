//go:build tinygo && avr

package uno

import (
	"runtime/volatile"
	"unsafe"
)

// volatileBus maps the data-space addresses of package atmega straight onto
// the I/O registers.
type volatileBus struct{}

func reg(addr uint16) *volatile.Register8 {
	return (*volatile.Register8)(unsafe.Pointer(uintptr(addr)))
}

func (volatileBus) Load(addr uint16) uint8 {
	return reg(addr).Get()
}

func (volatileBus) Store(addr uint16, value uint8) {
	reg(addr).Set(value)
}
