// The loop package provides a simple fixed-timestep frame loop.
package loop

import (
	"time"
)

// EventProcessor wraps the ProcessEvents method.
//
// It is up to the implementation to either poll events or wait for events.
// Applications using a wait-for-event model should however only use the Simple
// event loop.
//
// Drivers that need to present a frame should do so in their ProcessEvents
// method, before actually processing events.
type EventProcessor interface {
	ProcessEvents() (quit bool)
}

type FixedStepUpdater interface {
	EventProcessor
	Update(timestep time.Duration)
	Draw(frameTime, partialTimestep time.Duration)
}

// FrameStarter is the interface implemented by any App that wants the time
// stamp at the beginning of each loop iteration.
type FrameStarter interface {
	FrameStart(time.Time)
}

type SimpleUpdater interface {
	EventProcessor
	Update()
	Draw()
}

// A Clock returns the current time.
type Clock func() time.Time

// Stepper returns a Clock starting at start and advancing by step on every
// call. Loops driven by a Stepper are deterministic.
func Stepper(start time.Time, step time.Duration) Clock {
	t := start.Add(-step)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

// Simple provides a very simple event loop suited for applications that use a
// wait-for-event model.
type Simple struct {
	Clock  Clock // defaults to time.Now
	ticker *time.Ticker
	minFT  time.Duration
	frames uint64
}

// MinFrameTime sets the minimum frame time.
//
// If the t value is greater than 0, the frame rate will be clamped
// to time.Second/t. It has no effect when a Clock is set.
func (l *Simple) MinFrameTime(t time.Duration) {
	if t == l.minFT {
		return
	}
	l.stopTicker()
	l.minFT = t
	if l.minFT > 0 {
		l.ticker = time.NewTicker(l.minFT)
	}
}

// Frames returns the number of frames drawn.
func (l *Simple) Frames() uint64 { return l.frames }

func (l *Simple) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	if l.ticker != nil {
		return <-l.ticker.C
	}
	return time.Now()
}

func (l *Simple) stopTicker() {
	if l.ticker != nil {
		l.ticker.Stop()
		l.ticker = nil
	}
}

func (l *Simple) Run(a SimpleUpdater) {
	fStart, _ := a.(FrameStarter)
	for !a.ProcessEvents() {
		now := l.now()
		if fStart != nil {
			fStart.FrameStart(now)
		}
		a.Update()
		a.Draw()
		l.frames++
	}
	l.stopTicker()
}

type FixedStep struct {
	Simple
	MaxFT time.Duration // maximum frame time
	DT    time.Duration // timestep
}

// Default timings for FixedStep.
const (
	DefaultDT    time.Duration = time.Second / 240
	DefaultMaxFT time.Duration = time.Second
)

func (l *FixedStep) Run(a FixedStepUpdater) {
	var (
		tAcc   time.Duration
		fStart FrameStarter
	)

	fStart, _ = a.(FrameStarter)

	if l.DT == 0 {
		l.DT = DefaultDT
	}
	if l.MaxFT == 0 {
		l.MaxFT = DefaultMaxFT
	}

	tPrev := l.now()
	for !a.ProcessEvents() {
		now := l.now()
		ft := now.Sub(tPrev)
		if ft > l.MaxFT {
			ft = l.MaxFT
		}
		tAcc += ft
		tPrev = now
		if fStart != nil {
			fStart.FrameStart(now)
		}
		for dt := l.DT; tAcc >= dt; tAcc -= dt {
			a.Update(dt)
		}
		a.Draw(ft, tAcc)
		l.frames++
	}
	l.stopTicker()
}
