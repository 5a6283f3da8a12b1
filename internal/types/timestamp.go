package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp is the boundary type for incoming timestamps. It accepts RFC3339
// strings, plain dates, epoch milliseconds and Firestore-style
// {seconds, nanoseconds} objects. Anything it cannot read leaves it unset;
// decoding never fails.
type Timestamp struct {
	t     time.Time
	valid bool
}

// NewTimestamp wraps t; a zero t yields an unset Timestamp
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t, valid: !t.IsZero()}
}

// Valid reports whether the timestamp is set
func (ts Timestamp) Valid() bool { return ts.valid }

// Time returns the timestamp, or the zero time when unset
func (ts Timestamp) Time() time.Time {
	if !ts.valid {
		return time.Time{}
	}
	return ts.t
}

// Ptr returns a pointer to a copy of the time, or nil when unset
func (ts Timestamp) Ptr() *time.Time {
	if !ts.valid {
		return nil
	}
	t := ts.t
	return &t
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a stored or wire timestamp string. Empty or unparsable
// input returns nil.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.IsZero() {
				return nil
			}
			return &t
		}
	}
	return nil
}

// FormatTime renders t as RFC3339, or "" when nil
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

type firestoreTimestamp struct {
	Seconds      *int64 `json:"seconds"`
	Nanoseconds  int64  `json:"nanoseconds"`
	USeconds     *int64 `json:"_seconds"`
	UNanoseconds int64  `json:"_nanoseconds"`
}

// UnmarshalJSON implements json.Unmarshaler
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if t := ParseTime(s); t != nil {
			*ts = NewTimestamp(*t)
		}
	case '{':
		var fs firestoreTimestamp
		if err := json.Unmarshal(data, &fs); err != nil {
			return nil
		}
		secs, nanos := fs.Seconds, fs.Nanoseconds
		if secs == nil {
			secs, nanos = fs.USeconds, fs.UNanoseconds
		}
		if secs == nil || (*secs == 0 && nanos == 0) {
			return nil
		}
		*ts = NewTimestamp(time.Unix(*secs, nanos).UTC())
	default:
		ms, err := strconv.ParseFloat(string(data), 64)
		if err != nil || ms == 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return nil
		}
		*ts = NewTimestamp(time.UnixMilli(int64(ms)).UTC())
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.valid {
		return []byte("null"), nil
	}
	return json.Marshal(ts.t.Format(time.RFC3339Nano))
}

// Amount is the boundary type for monetary fields. Numbers and numeric
// strings are accepted; null, empty and non-numeric input leave it unset.
type Amount struct {
	v     float64
	valid bool
}

// NewAmount wraps v as a set amount
func NewAmount(v float64) Amount { return Amount{v: v, valid: true} }

// Valid reports whether the amount is set
func (a Amount) Valid() bool { return a.valid }

// Ptr returns a pointer to a copy of the value, or nil when unset
func (a Amount) Ptr() *float64 {
	if !a.valid {
		return nil
	}
	v := a.v
	return &v
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*a = NewAmount(v)
	return nil
}

// MarshalJSON implements json.Marshaler
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.v)
}
