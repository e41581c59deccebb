package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// naiveLayout is an ISO 8601 timestamp without an offset, as emitted for
// naive datetimes. Fractional seconds are optional when parsing.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// Time is a backend timestamp. It accepts RFC 3339 and timestamps without
// an offset, which are read as UTC. It encodes as RFC 3339.
type Time struct {
	time.Time
}

// UnmarshalJSON accepts a JSON string timestamp or null.
func (t *Time) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTime parses an RFC 3339 timestamp, falling back to the offset-less
// form (with or without a space separator) in UTC.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{naiveLayout, "2006-01-02 15:04:05.999999999"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
