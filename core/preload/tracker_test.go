package preload

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerFiresOnceForEveryOrder(t *testing.T) {
	const n = 5
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 200; round++ {
		tr := NewTracker(n)
		order := rng.Perm(n)
		fired := 0
		for i, slot := range order {
			if tr.Complete(slot) {
				fired++
				assert.Equal(t, n-1, i, "fired before the last slot")
			}
			// duplicate completion signals are ignored
			if tr.Complete(slot) {
				fired++
			}
		}
		assert.Equal(t, 1, fired)
		assert.True(t, tr.Ready())
		assert.Equal(t, 0, tr.Remaining())
	}
}

func TestTrackerConcurrentCompletion(t *testing.T) {
	const n = 64
	tr := NewTracker(n)
	var wg sync.WaitGroup
	var mu sync.Mutex
	fired := 0
	for slot := 0; slot < n; slot++ {
		for dup := 0; dup < 3; dup++ {
			wg.Add(1)
			go func(s int) {
				defer wg.Done()
				tr.Update(s, 0.5)
				if tr.Complete(s) {
					mu.Lock()
					fired++
					mu.Unlock()
				}
			}(slot)
		}
	}
	wg.Wait()
	assert.Equal(t, 1, fired)
	assert.Equal(t, 1.0, tr.Progress())
}

func TestTrackerProgressIsMonotonic(t *testing.T) {
	tr := NewTracker(4)
	assert.Equal(t, 0.0, tr.Progress())

	tr.Update(0, 0.5)
	assert.InDelta(t, 0.125, tr.Progress(), 1e-9)

	tr.Update(0, 0.25) // stale
	assert.InDelta(t, 0.125, tr.Progress(), 1e-9)

	tr.Update(0, 7) // clamped
	assert.InDelta(t, 0.25, tr.Progress(), 1e-9)

	tr.Complete(1)
	tr.Update(1, 0.1) // completed slots are frozen
	assert.InDelta(t, 0.5, tr.Progress(), 1e-9)

	tr.Update(9, 1) // out of range
	tr.Complete(-1)
	assert.Equal(t, 50, tr.Percent())

	tr.Complete(0)
	tr.Complete(2)
	tr.Complete(3)
	assert.Equal(t, 1.0, tr.Progress())
	assert.Equal(t, 100, tr.Percent())
}

func TestTrackerReportOnlyOnChange(t *testing.T) {
	tr := NewTracker(2)
	pct, changed := tr.Report()
	assert.True(t, changed)
	assert.Equal(t, 0, pct)

	_, changed = tr.Report()
	assert.False(t, changed)

	tr.Update(0, 0.004) // 0.2% rounds down to 0
	_, changed = tr.Report()
	assert.False(t, changed)

	tr.Update(0, 0.5)
	pct, changed = tr.Report()
	assert.True(t, changed)
	assert.Equal(t, 25, pct)
}
