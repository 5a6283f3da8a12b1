package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tripdesk/backend/internal/types"
)

func TestResolveByMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    types.AttendanceStatus
	}{
		{0, types.AttendanceAbsent},
		{-30, types.AttendanceAbsent},
		{239, types.AttendanceAbsent},
		{240, types.AttendanceHalfDay},
		{479, types.AttendanceHalfDay},
		{480, types.AttendancePresent},
		{720, types.AttendancePresent},
	}

	for _, tt := range tests {
		got := Resolve(tt.minutes, false, false, false, false)
		assert.Equal(t, tt.want, got, "minutes=%d", tt.minutes)
	}
}

func TestResolvePriority(t *testing.T) {
	tests := []struct {
		name                                   string
		minutes                                int
		leave, holiday, workedHoliday, regular bool
		want                                   types.AttendanceStatus
	}{
		{"worked holiday beats everything", 0, true, true, true, true, types.AttendanceHolidayWorked},
		{"worked holiday with leave", 0, true, false, true, false, types.AttendanceHolidayWorked},
		{"leave beats holiday", 600, true, true, false, false, types.AttendanceLeave},
		{"holiday beats minutes", 600, false, true, false, false, types.AttendanceHoliday},
		{"regularized half day is present", 240, false, false, false, true, types.AttendancePresent},
		{"regularized below half day", 100, false, false, false, true, types.AttendanceHalfDay},
		{"regularized zero", 0, false, false, false, true, types.AttendanceHalfDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.minutes, tt.leave, tt.holiday, tt.workedHoliday, tt.regular)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDayZeroValue(t *testing.T) {
	assert.Equal(t, types.AttendanceAbsent, ResolveDay(types.AttendanceDay{}))
}

func TestWorkedMinutes(t *testing.T) {
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	out1 := base.Add(4 * time.Hour)
	out2 := base.Add(9*time.Hour + 30*time.Second)
	inverted := base.Add(-time.Hour)

	sessions := []types.WorkSession{
		{CheckIn: base, CheckOut: &out1},
		{CheckIn: base.Add(5 * time.Hour), CheckOut: &out2},
		{CheckIn: base.Add(10 * time.Hour)},
		{CheckIn: base, CheckOut: &inverted},
	}

	assert.Equal(t, 240+240, WorkedMinutes(sessions))
	assert.Equal(t, 0, WorkedMinutes(nil))
}

func TestSummarize(t *testing.T) {
	days := []types.AttendanceDay{
		{Date: "2024-06-03", TotalMinutes: 500},
		{Date: "2024-06-04", TotalMinutes: 300},
		{Date: "2024-06-05", IsLeave: true},
		{Date: "2024-06-06", TotalMinutes: 10},
		{Date: "2024-06-07", TotalMinutes: 490},
	}

	s := Summarize(days)
	assert.Equal(t, 5, s.Days)
	assert.Equal(t, 1300, s.TotalMinutes)
	assert.Equal(t, 2, s.ByStatus[types.AttendancePresent])
	assert.Equal(t, 1, s.ByStatus[types.AttendanceHalfDay])
	assert.Equal(t, 1, s.ByStatus[types.AttendanceLeave])
	assert.Equal(t, 1, s.ByStatus[types.AttendanceAbsent])

	views := Views(days)
	assert.Len(t, views, 5)
	assert.Equal(t, types.AttendanceLeave, views[2].Status)
}
