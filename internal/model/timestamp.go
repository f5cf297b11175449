package model

import (
	"bytes"
	"fmt"
	"time"
)

// TimestampLayout is the wire format of every stored timestamp: UTC, millisecond precision,
// e.g. "2024-03-01T09:15:00.000Z". This is the shape browsers produce with toISOString,
// so backups written by older clients round-trip byte for byte.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// fallbackLayouts are accepted on decode only. The first covers any RFC 3339 string
// (fractional seconds are optional when parsing); the rest cover datetime-local form values.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Timestamp is a time.Time that serialises as an ISO-8601 string.
// The zero value means "unset" and is written as JSON null.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, normalised to UTC at millisecond precision so an in-memory
// value equals the one read back from storage.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// ParseTimestamp parses s using the accepted layouts. An empty string yields the zero Timestamp.
func ParseTimestamp(s string) (Timestamp, error) {
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("model: invalid timestamp %q", s)
}

// String returns the wire form, or "" when unset.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. null and "" decode to the zero value.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("model: timestamp must be a string, got %s", data)
	}
	parsed, err := ParseTimestamp(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
