package core

// Critical runs fn with interrupts disabled. The interrupt state that was in
// effect on entry is restored when fn returns or panics, so nested calls only
// re-enable interrupts when the outermost one exits.
func Critical(fn func()) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	fn()
}

// With is Critical for closures that produce a value.
func With[T any](fn func() T) T {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return fn()
}
