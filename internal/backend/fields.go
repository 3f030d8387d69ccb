package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ListSeparator joins list-valued form fields on the wire.
const ListSeparator = "|"

// ListField is a list of text items sent as a "|"-joined string. It decodes from either a JSON
// array or a joined string.
type ListField []string

// ParseListField splits a joined string, trimming items and dropping empty ones.
func ParseListField(joined string) ListField {
	return NewListField(strings.Split(joined, ListSeparator)...)
}

// NewListField trims items and drops empty ones.
func NewListField(items ...string) ListField {
	out := make(ListField, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (l ListField) Join() string {
	return strings.Join(NewListField(l...), ListSeparator)
}

func (l ListField) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Join())
}

func (l *ListField) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*l = nil
		return nil
	}
	if raw[0] == '[' {
		var items []string
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("decode list field: %w", err)
		}
		*l = NewListField(items...)
		return nil
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err != nil {
		return fmt.Errorf("decode list field: %w", err)
	}
	*l = ParseListField(joined)
	return nil
}

// Text is a display value the backend sends as either a JSON string or a number.
type Text string

func (t *Text) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*t = ""
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	if bytes.Equal(raw, []byte("true")) || bytes.Equal(raw, []byte("false")) {
		*t = Text(raw)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return fmt.Errorf("decode text value: %w", err)
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// Int parses the value, returning 0 when it is not an integer.
func (t Text) Int() int {
	n, err := strconv.Atoi(strings.TrimSpace(string(t)))
	if err != nil {
		return 0
	}
	return n
}

// Number is a display-only numeric value. It accepts JSON numbers and numeric strings; any other
// shape leaves it unset instead of failing the surrounding decode.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(raw []byte) error {
	*n = Number{}
	raw = bytes.TrimSpace(raw)
	text := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

// Int truncates the value; unset numbers are 0.
func (n Number) Int() int {
	if !n.Valid {
		return 0
	}
	return int(n.Value)
}

// Flag is a boolean decoded with JavaScript truthiness: false, null, 0, "" and a missing value
// are false, everything else is true.
type Flag bool

func (f *Flag) UnmarshalJSON(raw []byte) error {
	*f = Flag(truthy(raw))
	return nil
}

func truthy(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 't', '{', '[':
		return true
	case 'f', 'n':
		return false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return len(raw) > 2
		}
		return s != ""
	default:
		v, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && v != 0 && !math.IsNaN(v)
	}
}

// Timestamp tolerates empty strings, null and epoch milliseconds.
type Timestamp struct {
	time.Time
}

func (ts *Timestamp) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}
	if raw[0] != '"' {
		ms, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return fmt.Errorf("invalid timestamp %s", raw)
		}
		ts.Time = time.UnixMilli(int64(ms)).UTC()
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.UTC().Format(time.RFC3339Nano))
}
