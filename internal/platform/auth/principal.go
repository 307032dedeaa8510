// Package auth defines the authenticated principal threaded through every
// operation that needs an ownership check.
package auth

// Principal is the identity resolved from a verified bearer credential.
// It is passed as an explicit argument, never stored in shared mutable state.
type Principal struct {
	// LecturerID is the owning identity recorded against courses.
	LecturerID string
	// NIDN is the lecturer's display registration number, used in logs only.
	NIDN string
}
