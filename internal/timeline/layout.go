package timeline

import (
	"fmt"
	"math"
)

// Marker state classes.
const (
	StateSchedule = "schedule"
	StateHistory  = "history"
	StateBlocked  = "blocked"
)

// CategoryManual is the category class of manually started runs.
const CategoryManual = "programManual"

// categoryBuckets is the number of rotating program colours.
const categoryBuckets = 10

// Options tunes the layout thresholds, both expressed as tick fractions or minutes.
type Options struct {
	// VisibilityEpsilon is the minimum tick-relative end (in minutes) for a run that
	// started before the tick to be drawn in it.
	VisibilityEpsilon float64
	// MinWidth is the narrowest segment drawn, as a fraction of the tick.
	MinWidth float64
}

// DefaultOptions returns the thresholds of the controller UI.
func DefaultOptions() Options {
	return Options{VisibilityEpsilon: 0.05, MinWidth: 0.05}
}

// TickKey identifies one hour column of one station.
type TickKey struct {
	Station int
	Hour    int
}

// Slice returns the first minute of the tick.
func (k TickKey) Slice() float64 {
	return float64(k.Hour) * TickMinutes
}

// Frame is the render-time snapshot of "now" relative to the viewed date.
type Frame struct {
	IsToday    bool
	NowMinutes float64
}

// Segment is one positioned run fragment inside a tick.
type Segment struct {
	Left     float64 `json:"left"`
	Width    float64 `json:"width"`
	Category string  `json:"category"`
	State    string  `json:"state"`
	Tooltip  string  `json:"tooltip"`
}

// Engine lays out events onto ticks.
type Engine struct {
	opts Options
}

// NewEngine creates an engine. Non-positive thresholds fall back to the defaults.
func NewEngine(opts Options) Engine {
	def := DefaultOptions()
	if opts.VisibilityEpsilon <= 0 {
		opts.VisibilityEpsilon = def.VisibilityEpsilon
	}
	if opts.MinWidth <= 0 {
		opts.MinWidth = def.MinWidth
	}
	return Engine{opts: opts}
}

// Layout produces the segments of the tick identified by key, in event order.
// Every program name drawn is recorded in legend when legend is non-nil.
func (e Engine) Layout(key TickKey, events []Event, frame Frame, legend *Legend) []Segment {
	slice := key.Slice()
	var segments []Segment

	for _, ev := range events {
		if ev.Station != key.Station {
			continue
		}
		if Stale(ev, frame) {
			continue
		}
		if !finite(ev.Start) || !finite(ev.Duration) {
			continue
		}

		relativeStart := ev.Start - slice
		relativeEnd := ev.End() - slice
		if !e.visible(relativeStart, relativeEnd) {
			continue
		}

		barStart := math.Max(0, relativeStart) / TickMinutes
		barWidth := math.Max(e.opts.MinWidth, math.Min(relativeEnd, TickMinutes)/TickMinutes-barStart)

		category := Category(ev)
		if legend != nil {
			legend.Set(ev.ProgramName, category)
		}

		segments = append(segments, Segment{
			Left:     barStart,
			Width:    barWidth,
			Category: category,
			State:    State(ev),
			Tooltip:  fmt.Sprintf("%s: %s", ev.ProgramName, ev.Label),
		})
	}
	return segments
}

// visible is the tick intersection test. A run starting inside the tick, ending
// inside it past the epsilon, or covering it completely is drawn.
func (e Engine) visible(relativeStart, relativeEnd float64) bool {
	return (0 <= relativeStart && relativeStart < TickMinutes) ||
		(e.opts.VisibilityEpsilon < relativeEnd && relativeEnd <= TickMinutes) ||
		(relativeStart < 0 && relativeEnd >= TickMinutes)
}

// Stale reports whether ev is a scheduled run that should already have finished.
// Only today's view hides those; executed runs are never hidden.
func Stale(ev Event, frame Frame) bool {
	return frame.IsToday && ev.Scheduled() && !ev.Active && ev.End() < frame.NowMinutes
}

// Category returns the colour class of the event's program.
func Category(ev Event) string {
	if ev.Manual {
		return CategoryManual
	}
	bucket := ((ev.Program+1)%categoryBuckets + categoryBuckets) % categoryBuckets
	return fmt.Sprintf("program%d", bucket)
}

// State returns the marker state class of the event.
func State(ev Event) string {
	if ev.Blocked != "" {
		return StateBlocked
	}
	if ev.Active {
		return StateHistory
	}
	return StateSchedule
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
