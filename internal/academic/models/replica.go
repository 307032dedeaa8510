package models

import "time"

// StudentReplica is the local, read-only projection of a student owned by
// the registry service. It is written only by the replication consumer and
// may be transiently stale; it is never the source of truth.
type StudentReplica struct {
	StudentID string
	NIM       string // unique when known; update-before-add rows lack it until the add arrives
	Name      string
	Major     string
	UpdatedAt time.Time
}
