package types

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fastjson"

	"github.com/c360/logdash/errors"
	"github.com/c360/logdash/pkg/timestamp"
)

var parserPool fastjson.ParserPool

// timestampKeys lists the accepted creation-time fields, in precedence order.
var timestampKeys = []string{"created_at", "timestamp", "time", "ts"}

// LogEntry is one observed event. It is immutable once ingested.
type LogEntry struct {
	ID        string         `json:"id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	TraceID   string         `json:"trace_id,omitempty"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Raw       map[string]any `json:"raw,omitempty"`
}

// UnmarshalJSON lifts the well-known fields and folds the rest into Raw.
// An explicit "raw" object is merged into Raw as well.
func (e *LogEntry) UnmarshalJSON(data []byte) error {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return errors.WrapInvalid(err, "LogEntry", "UnmarshalJSON", "parse JSON")
	}
	if v.Type() != fastjson.TypeObject {
		return errors.WrapInvalid(errors.ErrInvalidData, "LogEntry", "UnmarshalJSON",
			"expect object, got "+v.Type().String())
	}
	fields, _ := toAny(v).(map[string]any)

	out := LogEntry{}
	out.ID = stringField(fields, "id")
	out.TraceID = stringField(fields, "trace_id")
	out.Level = stringField(fields, "level")
	out.Message = stringField(fields, "message")

	for _, key := range timestampKeys {
		v, ok := fields[key]
		if !ok {
			continue
		}
		ts, err := timestamp.Parse(v)
		if err != nil {
			// Unparseable times stay in Raw; the event itself is kept.
			slog.Debug("Ignoring unrecognized log timestamp", "component", "LogEntry", "field", key, "error", err)
			continue
		}
		out.CreatedAt = ts
		delete(fields, key)
		break
	}

	if nested, ok := fields["raw"].(map[string]any); ok {
		delete(fields, "raw")
		for k, v := range nested {
			if _, clash := fields[k]; !clash {
				fields[k] = v
			}
		}
	}

	if len(fields) > 0 {
		out.Raw = fields
	}
	*e = out
	return nil
}

// toAny copies a parsed value out of the parser's memory. Numbers stay
// json.Number so integers keep their exact text.
func toAny(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		obj, _ := v.Object()
		m := make(map[string]any, obj.Len())
		obj.Visit(func(k []byte, child *fastjson.Value) {
			m[string(k)] = toAny(child)
		})
		return m
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := make([]any, len(arr))
		for i, child := range arr {
			out[i] = toAny(child)
		}
		return out
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b)
	case fastjson.TypeNumber:
		return json.Number(v.String())
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}

// stringField removes key from fields and returns it as a string.
// Numbers and booleans are formatted; other types are left in place.
func stringField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		delete(fields, key)
		return s
	case json.Number:
		delete(fields, key)
		return s.String()
	case bool:
		delete(fields, key)
		return strconv.FormatBool(s)
	case nil:
		delete(fields, key)
		return ""
	}
	return ""
}

// EnsureID assigns a random identifier when the producer sent none.
func (e *LogEntry) EnsureID() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
}

// FieldValues returns the entry's values in a fixed order for text matching:
// id, created_at, trace_id, level, message, raw. Empty optional fields are
// omitted.
func (e LogEntry) FieldValues() []any {
	values := make([]any, 0, 6)
	if e.ID != "" {
		values = append(values, e.ID)
	}
	if !e.CreatedAt.IsZero() {
		values = append(values, e.CreatedAt.Format(time.RFC3339Nano))
	}
	if e.TraceID != "" {
		values = append(values, e.TraceID)
	}
	values = append(values, e.Level, e.Message)
	if len(e.Raw) > 0 {
		values = append(values, e.Raw)
	}
	return values
}
