package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"SignalBoard/pkg/util"
)

// Timestamp is a time.Time that decodes the loose timestamp formats written by
// the producer (RFC 3339, naive ISO-8601 as UTC, unix seconds) and encodes as
// RFC 3339 or null when zero.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var raw string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		if raw == "" {
			t.Time = time.Time{}
			return nil
		}
	} else {
		raw = string(b)
	}

	parsed, ok := util.ParseTime(raw)
	if !ok {
		return fmt.Errorf("invalid timestamp %s", strconv.Quote(raw))
	}
	t.Time = parsed
	return nil
}

// Equal compares instants, ignoring location.
func (t Timestamp) Equal(other Timestamp) bool { return t.Time.Equal(other.Time) }

// Ptr returns nil for the zero timestamp.
func (t Timestamp) Ptr() *Timestamp {
	if t.IsZero() {
		return nil
	}
	c := t
	return &c
}
