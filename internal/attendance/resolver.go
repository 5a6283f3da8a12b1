package attendance

import "github.com/tripdesk/backend/internal/types"

const (
	// FullDayMinutes is the worked time needed for a present day
	FullDayMinutes = 480
	// HalfDayMinutes is the worked time needed for a half day
	HalfDayMinutes = 240
)

// Resolve classifies one day. The first matching rule wins:
// worked holiday, leave, holiday, regularized, then worked minutes.
func Resolve(totalMinutes int, isLeave, isHoliday, workedOnHoliday, isRegularized bool) types.AttendanceStatus {
	if totalMinutes < 0 {
		totalMinutes = 0
	}

	switch {
	case workedOnHoliday:
		return types.AttendanceHolidayWorked
	case isLeave:
		return types.AttendanceLeave
	case isHoliday:
		return types.AttendanceHoliday
	case isRegularized:
		// regularized days only need a half day to count as present
		if totalMinutes >= HalfDayMinutes {
			return types.AttendancePresent
		}
		return types.AttendanceHalfDay
	case totalMinutes >= FullDayMinutes:
		return types.AttendancePresent
	case totalMinutes >= HalfDayMinutes:
		return types.AttendanceHalfDay
	default:
		return types.AttendanceAbsent
	}
}

// ResolveDay classifies a stored attendance day
func ResolveDay(day types.AttendanceDay) types.AttendanceStatus {
	return Resolve(day.TotalMinutes, day.IsLeave, day.IsHoliday, day.WorkedOnHoliday, day.IsRegularized)
}

// WorkedMinutes sums closed sessions in whole minutes. Open sessions and
// sessions whose check-out precedes check-in count as zero.
func WorkedMinutes(sessions []types.WorkSession) int {
	total := 0
	for _, s := range sessions {
		if s.CheckOut == nil || s.CheckIn.IsZero() {
			continue
		}
		d := s.CheckOut.Sub(s.CheckIn)
		if d <= 0 {
			continue
		}
		total += int(d.Minutes())
	}
	return total
}
