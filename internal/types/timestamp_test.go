package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampUnmarshal(t *testing.T) {
	want := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		valid bool
		want  time.Time
	}{
		{name: "rfc3339", input: `"2024-03-10T09:30:00Z"`, valid: true, want: want},
		{name: "rfc3339 with offset", input: `"2024-03-10T11:30:00+02:00"`, valid: true, want: want},
		{name: "plain date", input: `"2024-03-10"`, valid: true, want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{name: "epoch millis", input: `1710063000000`, valid: true, want: want},
		{name: "firestore object", input: `{"seconds":1710063000,"nanoseconds":0}`, valid: true, want: want},
		{name: "admin sdk object", input: `{"_seconds":1710063000,"_nanoseconds":0}`, valid: true, want: want},
		{name: "null", input: `null`},
		{name: "empty string", input: `""`},
		{name: "zero number", input: `0`},
		{name: "garbage string", input: `"next tuesday"`},
		{name: "boolean", input: `true`},
		{name: "empty object", input: `{}`},
		{name: "array", input: `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.Equal(t, tt.valid, ts.Valid())
			if tt.valid {
				assert.True(t, tt.want.Equal(ts.Time()), "got %v", ts.Time())
				require.NotNil(t, ts.Ptr())
			} else {
				assert.Nil(t, ts.Ptr())
			}
		})
	}
}

func TestTimestampInStruct(t *testing.T) {
	var payload struct {
		Due  Timestamp `json:"due"`
		Seen Timestamp `json:"seen"`
	}
	err := json.Unmarshal([]byte(`{"due":"2024-03-10T09:30:00Z"}`), &payload)
	require.NoError(t, err)

	assert.True(t, payload.Due.Valid())
	assert.False(t, payload.Seen.Valid(), "absent field must be unset")
}

func TestTimestampMarshal(t *testing.T) {
	data, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	data, err = json.Marshal(NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-02T03:04:05Z"`, string(data))
}

func TestAmountUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		valid bool
		want  float64
	}{
		{`5000`, true, 5000},
		{`0`, true, 0},
		{`"1250.50"`, true, 1250.5},
		{`null`, false, 0},
		{`""`, false, 0},
		{`"abc"`, false, 0},
		{`{}`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var a Amount
			require.NoError(t, json.Unmarshal([]byte(tt.input), &a))
			assert.Equal(t, tt.valid, a.Valid())
			if tt.valid {
				assert.Equal(t, tt.want, *a.Ptr())
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	assert.Nil(t, ParseTime(""))
	assert.Nil(t, ParseTime("  "))
	assert.Nil(t, ParseTime("not a date"))

	got := ParseTime("2024-05-01T10:00:00Z")
	require.NotNil(t, got)
	assert.Equal(t, "2024-05-01T10:00:00Z", FormatTime(got))
	assert.Equal(t, "", FormatTime(nil))
}

func TestStageLabel(t *testing.T) {
	assert.Equal(t, "closed_won", StageClosedWon.Label())
	assert.Equal(t, UnknownLabel, Stage("archived").Label())
	assert.Equal(t, UnknownLabel, Stage("").Label())
	assert.False(t, Stage("archived").Valid())
}
