package view

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Fielder exposes the values an item is matched on.
type Fielder interface {
	FieldValues() []any
}

// Apply returns the items matching filter. It never modifies items.
func Apply[T Fielder](items []T, filter string) []T {
	if strings.TrimSpace(filter) == "" {
		return items
	}

	needle := strings.ToLower(filter)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(MatchText(item)), needle) {
			out = append(out, item)
		}
	}
	return out
}

// MatchText renders an item's field values as the space-joined text that
// filters match against.
func MatchText(item Fielder) string {
	values := item.FieldValues()
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = stringify(v)
	}
	return strings.Join(parts, " ")
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(t)
	}

	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
