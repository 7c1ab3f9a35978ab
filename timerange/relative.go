package timerange

import (
	"fmt"
	"math"
	"time"
)

type relUnit struct {
	name    string
	seconds int64
}

var relUnits = []relUnit{
	{"year", 60 * 60 * 24 * 365},
	{"month", 60 * 60 * 24 * 30},
	{"day", 60 * 60 * 24},
	{"hour", 60 * 60},
	{"minute", 60},
	{"second", 1},
}

// FormatRelative describes t relative to now in English, picking the
// largest whole unit: "5 minutes ago", "in 2 hours", "yesterday", "now".
// The zero time formats as "".
func FormatRelative(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	diff := int64(math.Floor(float64(t.Sub(now).Milliseconds()) / 1000))
	abs := diff
	if abs < 0 {
		abs = -abs
	}

	for _, u := range relUnits {
		if abs < u.seconds && u.name != "second" {
			continue
		}
		value := int64(math.Floor(float64(diff)/float64(u.seconds) + 0.5))
		return phrase(value, u.name)
	}
	return ""
}

func phrase(value int64, unit string) string {
	switch {
	case value == 0 && unit == "second":
		return "now"
	case value == -1 && unit == "day":
		return "yesterday"
	case value == 1 && unit == "day":
		return "tomorrow"
	case value == -1 && (unit == "year" || unit == "month"):
		return "last " + unit
	case value == 1 && (unit == "year" || unit == "month"):
		return "next " + unit
	}

	n := value
	if n < 0 {
		n = -n
	}
	label := unit
	if n != 1 {
		label += "s"
	}
	if value < 0 {
		return fmt.Sprintf("%d %s ago", n, label)
	}
	return fmt.Sprintf("in %d %s", n, label)
}
