package types

import "time"

// AttendanceStatus is the derived classification of an attendance day
type AttendanceStatus string

const (
	AttendancePresent       AttendanceStatus = "present"
	AttendanceHalfDay       AttendanceStatus = "half-day"
	AttendanceAbsent        AttendanceStatus = "absent"
	AttendanceLeave         AttendanceStatus = "leave"
	AttendanceHoliday       AttendanceStatus = "holiday"
	AttendanceHolidayWorked AttendanceStatus = "holiday_worked"
)

// WorkSession is one check-in/check-out pair
type WorkSession struct {
	CheckIn  time.Time  `json:"checkIn"`
	CheckOut *time.Time `json:"checkOut,omitempty"`
}

// AttendanceDay is one user's attendance record for a calendar day
type AttendanceDay struct {
	UserID          string        `json:"userId"`
	Date            string        `json:"date"` // YYYY-MM-DD
	TotalMinutes    int           `json:"totalMinutes"`
	IsLeave         bool          `json:"isLeave"`
	IsHoliday       bool          `json:"isHoliday"`
	WorkedOnHoliday bool          `json:"workedOnHoliday"`
	IsRegularized   bool          `json:"isRegularized"`
	Sessions        []WorkSession `json:"sessions,omitempty"`
}
