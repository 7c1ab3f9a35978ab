// Package timestamp converts between time.Time, unix milliseconds and the
// timestamp encodings log producers send.
//
// Milliseconds since the unix epoch are the persisted form; 0 means unset.
// Numeric inputs above 1e12 are read as milliseconds, anything smaller as
// seconds (1e12 seconds is far beyond any plausible log timestamp).
package timestamp

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const msThreshold = 1e12

// Numeric timestamps must fall within years 0001 through 9999.
const (
	minEpochSec = -62135596800
	maxEpochMs  = 253402300799999
)

// layouts are tried in order for string timestamps.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
}

// ToUnixMs converts t to unix milliseconds. The zero time maps to 0.
func ToUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMs converts unix milliseconds to a UTC time. 0 maps to the zero
// time.
func FromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Format renders ms as RFC 3339 in UTC, or "" when unset.
func Format(ms int64) string {
	if ms == 0 {
		return ""
	}
	return FromUnixMs(ms).Format(time.RFC3339)
}

// Parse reads a timestamp from a decoded JSON value: strings in RFC 3339 or
// a common SQL-like layout, numeric strings, json.Number and Go numbers.
// nil yields the zero time.
func Parse(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string:
		return parseString(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid numeric timestamp %q: %w", t, err)
		}
		return fromEpoch(f)
	case float64:
		return fromEpoch(t)
	case int64:
		return fromEpoch(float64(t))
	case int:
		return fromEpoch(float64(t))
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
}

func parseString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(f)
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func fromEpoch(f float64) (time.Time, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("invalid numeric timestamp %v", f)
	}
	if f < minEpochSec || f > maxEpochMs {
		return time.Time{}, fmt.Errorf("numeric timestamp %v out of range", f)
	}
	if f > msThreshold {
		return time.UnixMilli(int64(f)).UTC(), nil
	}
	sec := math.Floor(f)
	return time.Unix(int64(sec), int64((f-sec)*1e9)).UTC(), nil
}
