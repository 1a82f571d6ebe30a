package client

import (
	"context"
	"time"
)

const (
	DefaultActivityInterval  = 50 * time.Millisecond
	DefaultActivityThreshold = 0.12
	DefaultActivityHold      = 300 * time.Millisecond
)

// ActivityDetector turns sampled input levels into a speaking flag. It
// switches on as soon as a level exceeds the threshold and switches off
// only after the level stayed at or below it for the hold period.
type ActivityDetector struct {
	Threshold float64
	Hold      time.Duration

	speaking   bool
	quietSince time.Time
}

func NewActivityDetector(threshold float64, hold time.Duration) *ActivityDetector {
	return &ActivityDetector{Threshold: threshold, Hold: hold}
}

// Observe feeds one sample and reports the flag and whether it changed.
func (d *ActivityDetector) Observe(level float64, now time.Time) (speaking, changed bool) {
	if level > d.Threshold {
		d.quietSince = time.Time{}
		if !d.speaking {
			d.speaking = true
			return true, true
		}
		return true, false
	}
	if !d.speaking {
		return false, false
	}
	if d.quietSince.IsZero() {
		d.quietSince = now
	}
	if now.Sub(d.quietSince) >= d.Hold {
		d.speaking = false
		d.quietSince = time.Time{}
		return false, true
	}
	return true, false
}

func (d *ActivityDetector) Speaking() bool { return d.speaking }

// Run samples level every interval until ctx ends and calls onChange on
// transitions. If the detector was speaking, onChange(false) is called on
// exit.
func (d *ActivityDetector) Run(ctx context.Context, interval time.Duration, level func() float64, onChange func(bool)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if d.speaking {
				d.speaking = false
				onChange(false)
			}
			return
		case now := <-ticker.C:
			if speaking, changed := d.Observe(level(), now); changed {
				onChange(speaking)
			}
		}
	}
}
