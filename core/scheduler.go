package core

// SoftTimer is a foreground event that runs from ProcessTimers once Millis
// reaches WakeTime.
type SoftTimer struct {
	WakeTime uint32
	Handler  func(*SoftTimer) uint8
	Next     *SoftTimer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var timerList *SoftTimer

// before orders wake times across the 32-bit wrap: a is before b when it is
// less than half the counter range behind it.
func before(a, b uint32) bool {
	return int32(a-b) < 0
}

// ScheduleTimer adds a timer to the schedule
func ScheduleTimer(t *SoftTimer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	CancelTimer(t)
	insertTimer(t)
}

// CancelTimer removes a timer if it is scheduled.
func CancelTimer(t *SoftTimer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for p := &timerList; *p != nil; p = &(*p).Next {
		if *p == t {
			*p = t.Next
			t.Next = nil
			return
		}
	}
}

// insertTimer inserts a timer in sorted order by WakeTime
func insertTimer(t *SoftTimer) {
	if timerList == nil || before(t.WakeTime, timerList.WakeTime) {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && !before(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// TimerPending reports whether any timer is scheduled.
func TimerPending() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return timerList != nil
}

// ProcessTimers runs every timer due at now. Handlers run with interrupts
// enabled; the list is only locked while it is edited.
func ProcessTimers(now uint32) {
	for {
		state := disableInterrupts()
		t := timerList
		if t == nil || before(now, t.WakeTime) {
			restoreInterrupts(state)
			return
		}
		timerList = t.Next
		t.Next = nil // Clear Next pointer to avoid circular references
		restoreInterrupts(state)

		if t.Handler(t) == SF_RESCHEDULE {
			ScheduleTimer(t)
		}
	}
}
