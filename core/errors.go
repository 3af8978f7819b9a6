package core

import "errors"

var (
	ErrInvalidPin        = errors.New("invalid pin")
	ErrWrongMode         = errors.New("operation not allowed in current pin mode")
	ErrNotPWMCapable     = errors.New("pin has no PWM channel")
	ErrPresetUnavailable = errors.New("PWM preset not available on this timer")
	ErrInvalidPrescaler  = errors.New("prescaler not supported by this timer")
	ErrNoInputCapture    = errors.New("timer has no input capture unit")
	ErrInvalidSource     = errors.New("invalid interrupt source")
	ErrInvalidTrigger    = errors.New("invalid interrupt trigger")
	ErrNilHandler        = errors.New("nil interrupt handler")
	ErrServoLimits       = errors.New("invalid servo pulse limits")
	ErrNotAttached       = errors.New("servo not attached")
	ErrTimeout           = errors.New("timeout")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrQueueFull         = errors.New("no free queued output slot")
	ErrInvalidOID        = errors.New("invalid object id")
	ErrShutdown          = errors.New("board is shut down")
	ErrArgRange          = errors.New("argument out of range")
)
