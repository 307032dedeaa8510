package models

import "time"

// Session is a bounded window during which attendance may be recorded for
// one schedule occurrence.
//
// Invariants: at most one session per (ScheduleID, SessionDate); IsOpen is
// true from creation until exactly one close transition; ClosedAt is set if
// and only if IsOpen is false.
type Session struct {
	ID          string
	ScheduleID  string
	SessionDate string // YYYY-MM-DD
	OpenedAt    time.Time
	ClosedAt    *time.Time
	IsOpen      bool
}
