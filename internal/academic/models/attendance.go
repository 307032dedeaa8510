package models

import (
	"fmt"
	"time"
)

// AttendanceStatus enumerates the recordable outcomes.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusExcused AttendanceStatus = "excused"
	StatusSick    AttendanceStatus = "sick"
)

// ParseStatus validates a caller-supplied status. Empty defaults to present.
func ParseStatus(s string) (AttendanceStatus, error) {
	switch AttendanceStatus(s) {
	case "":
		return StatusPresent, nil
	case StatusPresent, StatusAbsent, StatusExcused, StatusSick:
		return AttendanceStatus(s), nil
	default:
		return "", fmt.Errorf("unknown attendance status %q", s)
	}
}

// Attendance is one recorded fact. Unique on (SessionID, StudentID): a
// student is recorded at most once per session.
type Attendance struct {
	ID         string
	SessionID  string
	StudentID  string
	Status     AttendanceStatus
	RecordedAt time.Time
}
