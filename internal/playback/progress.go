package playback

import (
	"time"
)

// Progress accumulates playback progress for a single story as a 0-100
// value increasing linearly over the configured duration. The caller
// samples it by passing the current time to Tick; pausing suspends the
// elapsed-time accumulation without resetting it, so resuming continues
// from the frozen value with no banked or double-counted time.
type Progress struct {
	duration time.Duration
	elapsed  time.Duration
	lastTick time.Time
	paused   bool
	done     bool
}

// NewProgress returns a running progress accumulator started at now
func NewProgress(duration time.Duration, now time.Time) *Progress {
	return &Progress{duration: duration, lastTick: now}
}

// Tick advances the accumulator to now and returns the current percent.
// complete is true exactly once, on the tick that first reaches 100.
func (p *Progress) Tick(now time.Time) (percent float64, complete bool) {
	if !p.paused {
		if now.After(p.lastTick) {
			p.elapsed += now.Sub(p.lastTick)
		}
		p.lastTick = now
	}
	percent = p.Percent()
	if !p.done && p.elapsed >= p.duration {
		p.done = true
		return percent, true
	}
	return percent, false
}

// Percent returns the current progress without advancing time
func (p *Progress) Percent() float64 {
	if p.duration <= 0 {
		return 100
	}
	pct := float64(p.elapsed) / float64(p.duration) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// Pause freezes the progress value. Ticks while paused do not accumulate.
func (p *Progress) Pause(now time.Time) {
	if p.paused {
		return
	}
	if now.After(p.lastTick) {
		p.elapsed += now.Sub(p.lastTick)
	}
	p.lastTick = now
	p.paused = true
}

// Resume continues accumulation from the frozen value. The gap spent
// paused is not counted.
func (p *Progress) Resume(now time.Time) {
	if !p.paused {
		return
	}
	p.lastTick = now
	p.paused = false
}

// Paused reports whether the accumulator is paused
func (p *Progress) Paused() bool {
	return p.paused
}

// Reset restarts progress from zero at now, used whenever the current
// media changes. The paused flag is preserved.
func (p *Progress) Reset(now time.Time) {
	p.elapsed = 0
	p.lastTick = now
	p.done = false
}
