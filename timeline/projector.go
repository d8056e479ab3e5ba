// Package timeline implements the pure time<->pixel coordinate engine behind
// the editor's timeline view. Nothing here holds state: every function is a
// pure projection of the duration it is handed, so the view can be recomputed
// on each render with whatever the session currently knows.
package timeline

import (
	"fmt"
	"math"

	"clipstudio/editor-gateway/models"
)

// minSpanWidth is the smallest fraction of the track a clip bar may render
// at. Purely a visibility floor; it carries no timing meaning.
const minSpanWidth = 0.004

// Tick is one labeled mark along the track. Position is the fraction of the
// track width at which it sits.
type Tick struct {
	Time     float64 `json:"time"`
	Position float64 `json:"position"`
	Label    string  `json:"label"`
}

// Span is a clip bar's horizontal placement, both values fractions of the
// track width.
type Span struct {
	Left  float64 `json:"left"`
	Width float64 `json:"width"`
}

// TickInterval picks the mark spacing for a given duration. Longer videos get
// sparser marks so labels stay readable; boundary durations belong to the
// denser tier (300s uses 10s marks, 60s uses 5s marks).
func TickInterval(duration float64) float64 {
	switch {
	case duration > 300:
		return 60
	case duration > 60:
		return 10
	default:
		return 5
	}
}

// Ticks produces the mark sequence for a duration. Unknown or zero duration
// yields no marks rather than an error.
func Ticks(duration float64) []Tick {
	if duration <= 0 {
		return []Tick{}
	}
	interval := TickInterval(duration)
	ticks := make([]Tick, 0, int(duration/interval)+1)
	for t := 0.0; t <= duration; t += interval {
		ticks = append(ticks, Tick{
			Time:     t,
			Position: t / duration,
			Label:    FormatLabel(t),
		})
	}
	return ticks
}

// ClipSpan places a clip on the track. The width floor keeps very short clips
// clickable.
func ClipSpan(start, end, duration float64) Span {
	if duration <= 0 {
		return Span{}
	}
	s := Span{
		Left:  start / duration,
		Width: (end - start) / duration,
	}
	if s.Width < minSpanWidth {
		s.Width = minSpanWidth
	}
	return s
}

// Playhead returns the fractional position of the current playback time, or 0
// while the duration is unknown.
func Playhead(current, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return current / duration
}

// ToTime inverts the projection for interactive seeking: a fractional track
// position becomes a target time. It reports false while the duration is
// unknown, in which case the seek must be dropped, not computed.
func ToTime(position, duration float64) (float64, bool) {
	if duration <= 0 {
		return 0, false
	}
	if position < 0 {
		position = 0
	} else if position > 1 {
		position = 1
	}
	return position * duration, true
}

// FormatLabel renders a tick time as MM:SS.
func FormatLabel(seconds float64) string {
	m := int(math.Floor(seconds / 60))
	s := int(math.Floor(seconds)) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ClipBar is one rendered clip segment in a View.
type ClipBar struct {
	Clip     models.Clip `json:"clip"`
	Span     Span        `json:"span"`
	Selected bool        `json:"selected"`
}

// View is the derived timeline geometry served to the UI. It is recomputed
// per request and never stored.
type View struct {
	Duration      float64   `json:"duration"`
	DurationLabel string    `json:"duration_label"`
	Ticks         []Tick    `json:"ticks"`
	Clips         []ClipBar `json:"clips"`
	Playhead      float64   `json:"playhead"`
}

// BuildView assembles the full timeline geometry from the session's current
// state. selected reports selection membership per clip id.
func BuildView(duration, current float64, clips []models.Clip, selected func(string) bool) View {
	view := View{
		Duration:      duration,
		DurationLabel: FormatLabel(math.Max(duration, 0)),
		Ticks:         Ticks(duration),
		Clips:         make([]ClipBar, 0, len(clips)),
		Playhead:      Playhead(current, duration),
	}
	for _, clip := range clips {
		view.Clips = append(view.Clips, ClipBar{
			Clip:     clip,
			Span:     ClipSpan(clip.StartSeconds, clip.EndSeconds, duration),
			Selected: selected != nil && selected(clip.ID),
		})
	}
	return view
}
