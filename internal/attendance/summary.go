package attendance

import "github.com/tripdesk/backend/internal/types"

// Summary aggregates a range of attendance days for one user
type Summary struct {
	Days         int                            `json:"days"`
	TotalMinutes int                            `json:"totalMinutes"`
	ByStatus     map[types.AttendanceStatus]int `json:"byStatus"`
}

// DayView is a stored day with its resolved status
type DayView struct {
	types.AttendanceDay
	Status types.AttendanceStatus `json:"status"`
}

// Summarize resolves every day and counts them by status
func Summarize(days []types.AttendanceDay) Summary {
	s := Summary{
		Days:     len(days),
		ByStatus: make(map[types.AttendanceStatus]int),
	}
	for _, day := range days {
		s.ByStatus[ResolveDay(day)]++
		if day.TotalMinutes > 0 {
			s.TotalMinutes += day.TotalMinutes
		}
	}
	return s
}

// Views pairs each day with its resolved status, preserving order
func Views(days []types.AttendanceDay) []DayView {
	views := make([]DayView, 0, len(days))
	for _, day := range days {
		views = append(views, DayView{AttendanceDay: day, Status: ResolveDay(day)})
	}
	return views
}
