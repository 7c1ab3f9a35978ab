package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logdash/errors"
)

func TestLogEntry_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    LogEntry
		wantErr bool
	}{
		{
			name:  "well-known fields",
			input: `{"id":"a1","created_at":"2025-01-02T03:04:05Z","trace_id":"t9","level":"info","message":"hello"}`,
			want: LogEntry{
				ID:        "a1",
				CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
				TraceID:   "t9",
				Level:     "info",
				Message:   "hello",
			},
		},
		{
			name:  "extra fields folded into raw",
			input: `{"ts":"2025-01-02T03:04:05Z","level":"warn","message":"disk","host":"a1","usage":{"pct":91}}`,
			want: LogEntry{
				CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
				Level:     "warn",
				Message:   "disk",
				Raw: map[string]any{
					"host":  "a1",
					"usage": map[string]any{"pct": json.Number("91")},
				},
			},
		},
		{
			name:  "explicit raw merged",
			input: `{"level":"error","message":"x","raw":{"code":"E1"},"svc":"api"}`,
			want: LogEntry{
				Level:   "error",
				Message: "x",
				Raw:     map[string]any{"code": "E1", "svc": "api"},
			},
		},
		{
			name:  "epoch milliseconds",
			input: `{"timestamp":1735787045000,"level":"debug","message":"m"}`,
			want: LogEntry{
				CreatedAt: time.UnixMilli(1735787045000).UTC(),
				Level:     "debug",
				Message:   "m",
			},
		},
		{
			name:  "numeric id",
			input: `{"id":42,"level":"info","message":"m"}`,
			want:  LogEntry{ID: "42", Level: "info", Message: "m"},
		},
		{
			name:  "unrecognized timestamp kept in raw",
			input: `{"timestamp":"Jan 2 15:04:05","level":"info","message":"syslog line"}`,
			want: LogEntry{
				Level:   "info",
				Message: "syslog line",
				Raw:     map[string]any{"timestamp": "Jan 2 15:04:05"},
			},
		},
		{
			name:  "falls through to next timestamp field",
			input: `{"time":"yesterday","ts":"2025-01-02T03:04:05Z","level":"info","message":"m"}`,
			want: LogEntry{
				CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
				Level:     "info",
				Message:   "m",
				Raw:       map[string]any{"time": "yesterday"},
			},
		},
		{name: "not an object", input: `[1,2]`, wantErr: true},
		{name: "string", input: `"hello"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got LogEntry
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.CreatedAt.Equal(got.CreatedAt))
			got.CreatedAt = tt.want.CreatedAt
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogEntry_FieldValues(t *testing.T) {
	e := LogEntry{
		ID:      "a1",
		Level:   "info",
		Message: "hello",
		Raw:     map[string]any{"k": "v"},
	}
	assert.Equal(t, []any{"a1", "info", "hello", map[string]any{"k": "v"}}, e.FieldValues())
}

func TestLogEntry_EnsureID(t *testing.T) {
	var e LogEntry
	e.EnsureID()
	assert.Len(t, e.ID, 36)

	e2 := LogEntry{ID: "keep"}
	e2.EnsureID()
	assert.Equal(t, "keep", e2.ID)
}
