// Package timerange describes query time windows: absolute ranges, the
// built-in "last N" presets, and live ranges that slide forward with the
// clock.
package timerange

import (
	"fmt"
	"strings"
	"time"
)

// Range is a query time window. Live and Relative ranges with a Duration
// are recomputed against the current time by Resolve; Refresh, when set, is
// how often a Refresher re-resolves them.
type Range struct {
	Label    string        `json:"label"`
	From     time.Time     `json:"from"`
	To       time.Time     `json:"to"`
	Duration time.Duration `json:"duration,omitempty"`
	Refresh  time.Duration `json:"refresh,omitempty"`
	Relative bool          `json:"relative,omitempty"`
	Live     bool          `json:"live,omitempty"`
}

// Sliding reports whether the range moves with the clock.
func (r Range) Sliding() bool {
	return (r.Live || r.Relative) && r.Duration > 0
}

// Resolve returns r with From and To recomputed against now when the range
// slides. Fixed ranges are returned unchanged.
func (r Range) Resolve(now time.Time) Range {
	if !r.Sliding() {
		return r
	}
	r.To = now
	r.From = now.Add(-r.Duration)
	return r
}

// Equal reports whether two ranges describe the same window and behavior.
func (r Range) Equal(o Range) bool {
	return r.Label == o.Label &&
		r.From.Equal(o.From) &&
		r.To.Equal(o.To) &&
		r.Duration == o.Duration &&
		r.Refresh == o.Refresh &&
		r.Relative == o.Relative &&
		r.Live == o.Live
}

// String renders the label, or the window when there is no label.
func (r Range) String() string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("%s - %s", r.From.Format(time.RFC3339), r.To.Format(time.RFC3339))
}

// Absolute returns a fixed range.
func Absolute(from, to time.Time) Range {
	return Range{From: from, To: to}
}

// Last returns a live range covering the d before now.
func Last(d time.Duration, now time.Time) Range {
	return Range{Duration: d, Live: true, Relative: true}.Resolve(now)
}

type preset struct {
	label    string
	short    string
	duration time.Duration
	refresh  time.Duration
}

var presets = []preset{
	{"5 Minutes", "5m", 5 * time.Minute, 0},
	{"15 Minutes", "15m", 15 * time.Minute, 0},
	{"30 Minutes", "30m", 30 * time.Minute, 0},
	{"1 Hour", "1h", time.Hour, 30 * time.Second},
	{"4 Hours", "4h", 4 * time.Hour, 30 * time.Second},
	{"12 Hours", "12h", 12 * time.Hour, time.Minute},
	{"24 Hours", "24h", 24 * time.Hour, time.Minute},
	{"3 Days", "3d", 72 * time.Hour, time.Minute},
}

// Presets returns the built-in live ranges resolved against now.
func Presets(now time.Time) []Range {
	out := make([]Range, len(presets))
	for i, p := range presets {
		out[i] = p.toRange(now)
	}
	return out
}

// Preset looks up a built-in range by label ("15 Minutes") or short name
// ("15m"), case-insensitively.
func Preset(name string, now time.Time) (Range, bool) {
	name = strings.TrimSpace(name)
	for _, p := range presets {
		if strings.EqualFold(name, p.label) || strings.EqualFold(name, p.short) {
			return p.toRange(now), true
		}
	}
	return Range{}, false
}

func (p preset) toRange(now time.Time) Range {
	return Range{
		Label:    p.label,
		Duration: p.duration,
		Refresh:  p.refresh,
		Live:     true,
	}.Resolve(now)
}
