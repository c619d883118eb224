// Package debug provides frame timing helpers.
package debug

import (
	"time"
)

const samples = 32

// Timer keeps a rolling window of the last 32 durations added to it.
type Timer struct {
	times [samples]time.Duration
	index int
	n     int
}

// Add records dt.
func (t *Timer) Add(dt time.Duration) {
	t.times[t.index] = dt
	t.index = (t.index + 1) & (samples - 1)
	if t.n < samples {
		t.n++
	}
}

// Last returns the most recently added duration.
func (t *Timer) Last() time.Duration {
	if t.n == 0 {
		return 0
	}
	return t.times[(t.index-1)&(samples-1)]
}

// Average returns the average of the recorded durations.
func (t *Timer) Average() time.Duration {
	if t.n == 0 {
		return 0
	}
	var avg time.Duration
	for _, dt := range t.times[:t.n] {
		avg += dt
	}
	return avg / time.Duration(t.n)
}

// AveragePerSecond returns how many average durations fit in one second.
func (t *Timer) AveragePerSecond() float64 {
	avg := t.Average()
	if avg == 0 {
		return 0
	}
	return float64(time.Second) / float64(avg)
}

// Reset clears all samples.
func (t *Timer) Reset() {
	*t = Timer{}
}
