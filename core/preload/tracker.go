package preload

import (
	"math"
	"sync"
)

// Tracker holds one fractional completion value per resource slot and
// decides, order-independently, when the last one completes.
//
// Slot 0 is the song, slots 1..N are frames. Values never decrease, a slot
// completes at most once and Complete returns true for exactly one call.
type Tracker struct {
	mu           sync.Mutex
	slots        []float64
	done         []bool
	remaining    int
	fired        bool
	lastReported int
}

// NewTracker creates a tracker with n slots, all at zero.
func NewTracker(n int) *Tracker {
	return &Tracker{
		slots:        make([]float64, n),
		done:         make([]bool, n),
		remaining:    n,
		lastReported: -1,
	}
}

// Update records partial progress for slot. Lower values than the one
// already recorded, and updates to completed slots, are ignored.
func (t *Tracker) Update(slot int, fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slot < 0 || slot >= len(t.slots) || t.done[slot] {
		return
	}
	if fraction > 1 {
		fraction = 1
	}
	if fraction > t.slots[slot] {
		t.slots[slot] = fraction
	}
}

// Complete marks slot finished. It returns true only for the call that
// finishes the last outstanding slot; repeated completions of a slot are
// ignored.
func (t *Tracker) Complete(slot int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slot < 0 || slot >= len(t.slots) || t.done[slot] {
		return false
	}
	t.done[slot] = true
	t.slots[slot] = 1
	t.remaining--
	if t.remaining == 0 && !t.fired {
		t.fired = true
		return true
	}
	return false
}

// Progress is the arithmetic mean of all slots, in [0,1].
func (t *Tracker) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progressLocked()
}

func (t *Tracker) progressLocked() float64 {
	if len(t.slots) == 0 {
		return 1
	}
	if t.remaining == 0 {
		return 1
	}
	sum := 0.0
	for _, v := range t.slots {
		sum += v
	}
	return sum / float64(len(t.slots))
}

// Percent is the aggregate progress as a whole percentage, rounded down.
func (t *Tracker) Percent() int {
	return int(math.Floor(t.Progress() * 100))
}

// Report returns the current percentage and whether it differs from the one
// returned by the previous Report call that changed.
func (t *Tracker) Report() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pct := int(math.Floor(t.progressLocked() * 100))
	if pct == t.lastReported {
		return pct, false
	}
	t.lastReported = pct
	return pct, true
}

// Remaining is the number of slots not yet complete.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Ready reports whether every slot has completed.
func (t *Tracker) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}
