package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserveInsideDeadZoneFreeRuns(t *testing.T) {
	s := NewSync()
	s.Request(10.0)

	correction, seek := s.Observe(10.3)

	assert.False(t, seek)
	assert.Equal(t, 0.0, correction)
	assert.Equal(t, 10.3, s.Current())
}

func TestObserveOutsideDeadZoneCorrects(t *testing.T) {
	s := NewSync()
	s.Request(10.0)

	correction, seek := s.Observe(10.6)

	assert.True(t, seek)
	assert.Equal(t, 10.0, correction)
	// The requested position stays authoritative until the element catches up.
	assert.Equal(t, 10.0, s.Current())
}

func TestObserveAfterCatchUp(t *testing.T) {
	s := NewSync()
	s.Request(30.0)

	_, seek := s.Observe(12.0)
	assert.True(t, seek)

	correction, seek := s.Observe(30.1)
	assert.False(t, seek)
	assert.Equal(t, 0.0, correction)
	assert.Equal(t, 30.1, s.Current())
}

func TestRequestClampsNegative(t *testing.T) {
	s := NewSync()
	s.Request(-3)
	assert.Equal(t, 0.0, s.Current())
}

func TestReset(t *testing.T) {
	s := NewSync()
	s.Request(42)
	s.Reset()
	assert.Equal(t, 0.0, s.Current())
}
