package models

import "time"

// Student is the authoritative subject entity. Other services never read
// this table directly; they follow student-events into their own replicas.
type Student struct {
	ID        string
	NIM       string // natural key: student registration number, unique
	Name      string
	Major     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
