// Package playback reconciles the externally driven playback clock with the
// session's requested position.
package playback

import "math"

// DeadZone is the tolerance below which an observed-time report issues no
// correction. The observed clock only approximates the element's true
// position, so correcting on every report would seek in a loop.
const DeadZone = 0.5

// Sync holds the authoritative current time for the session. Seek intents go
// through Request; the playing element's continuous reports go through
// Observe.
type Sync struct {
	current float64
}

func NewSync() *Sync {
	return &Sync{}
}

// Request records a seek intent (timeline click, clip preview, clip click).
// The next Observe outside the dead zone will correct the element to it.
func (s *Sync) Request(t float64) {
	if t < 0 {
		t = 0
	}
	s.current = t
}

// Observe handles one observed-time report from the playing element. When the
// element has drifted beyond the dead zone from the requested position it
// returns a correction command (the time to set the element to); otherwise
// the element free-runs and the observed value becomes the current time.
func (s *Sync) Observe(observed float64) (correction float64, seek bool) {
	if math.Abs(observed-s.current) > DeadZone {
		return s.current, true
	}
	s.current = observed
	return 0, false
}

// Current returns the externally visible playback time.
func (s *Sync) Current() float64 {
	return s.current
}

// Reset returns the position to zero, as on video switch.
func (s *Sync) Reset() {
	s.current = 0
}
