package models

import "time"

// Course is a taught subject owned by exactly one lecturer. The lecturer id
// is the owning principal checked on session transitions.
type Course struct {
	ID         string
	Code       string // unique course code
	Name       string
	Credits    int
	LecturerID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Class is a cohort (semester, major, group). Unique on that triple.
type Class struct {
	ID        string
	Semester  string
	Major     string
	Group     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Schedule places a course in front of a class at a weekly time slot. It is
// the parent entity of attendance sessions; its course's lecturer is the
// session owner.
type Schedule struct {
	ID        string
	ClassID   string
	CourseID  string
	DayOfWeek string
	StartTime string // HH:MM
	EndTime   string // HH:MM
	Room      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
