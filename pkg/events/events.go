// Package events defines the wire format shared by every publisher/consumer
// pair in the federation: an immutable envelope carrying a typed payload,
// a producer timestamp, and a correlation id.
//
// The payload set is closed: every known type tag maps to exactly one Go
// struct, and Decode returns the matching variant. Consumers dispatch with a
// type switch; an unknown tag surfaces as ErrUnknownType so the consume loop
// can log and skip it instead of crashing.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Topic names. Offsets are tracked per (topic, consumer group) by the broker.
const (
	TopicStudentEvents  = "student-events"
	TopicAcademicEvents = "academic-events"
)

// Event type tags.
const (
	TypeStudentAdded   = "STUDENT_ADDED"
	TypeStudentUpdated = "STUDENT_UPDATED"

	TypeSessionOpened      = "SESSION_OPENED"
	TypeSessionClosed      = "SESSION_CLOSED"
	TypeAttendanceRecorded = "ATTENDANCE_RECORDED"

	TypeCourseAdded   = "COURSE_ADDED"
	TypeCourseUpdated = "COURSE_UPDATED"
	TypeCourseDeleted = "COURSE_DELETED"

	TypeClassAdded   = "CLASS_ADDED"
	TypeClassUpdated = "CLASS_UPDATED"
	TypeClassDeleted = "CLASS_DELETED"

	TypeScheduleAdded   = "SCHEDULE_ADDED"
	TypeScheduleUpdated = "SCHEDULE_UPDATED"
	TypeScheduleDeleted = "SCHEDULE_DELETED"
)

// ErrUnknownType is returned by Decode for a tag outside the closed set.
var ErrUnknownType = errors.New("unknown event type")

// Envelope is the immutable wrapper published to the broker. Timestamp is
// producer-side epoch milliseconds; TraceID correlates the event with the
// request that produced it. Latency optionally carries the producer-measured
// processing duration in nanoseconds.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	TraceID   string          `json:"trace_id"`
	Latency   int64           `json:"latency,omitempty"`
}

// New wraps payload in an envelope with a fresh trace id and the current
// producer timestamp.
func New(eventType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		TraceID:   uuid.NewString(),
	}, nil
}

// WithLatency returns a copy of the envelope carrying a producer-measured
// processing duration.
func (e Envelope) WithLatency(d time.Duration) Envelope {
	e.Latency = d.Nanoseconds()
	return e
}

// Encode serializes the envelope for the broker.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Parse deserializes a broker message into an envelope. A message without a
// type tag is malformed.
func Parse(raw []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	if e.Type == "" {
		return Envelope{}, errors.New("parse envelope: missing type")
	}
	return e, nil
}

// StudentAdded announces a new authoritative student row.
type StudentAdded struct {
	ID    string `json:"id"`
	NIM   string `json:"nim"`
	Name  string `json:"name"`
	Major string `json:"major"`
}

// StudentUpdated announces changed display fields for an existing student.
// It intentionally carries no NIM: the natural key is immutable upstream.
type StudentUpdated struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Major string `json:"major"`
}

// Session is the full post-transition session row carried by
// SESSION_OPENED and SESSION_CLOSED.
type Session struct {
	SessionID   string     `json:"session_id"`
	ScheduleID  string     `json:"schedule_id"`
	SessionDate string     `json:"session_date"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	IsOpen      bool       `json:"is_open"`
}

// AttendanceRecord is the stored attendance fact inside AttendanceRecorded.
type AttendanceRecord struct {
	AttendanceID string    `json:"attendance_id"`
	SessionID    string    `json:"session_id"`
	StudentID    string    `json:"student_id"`
	Status       string    `json:"status"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// AttendanceRecorded carries the record plus denormalized student display
// fields so downstream consumers need no join against the replica.
type AttendanceRecorded struct {
	Record      AttendanceRecord `json:"record"`
	StudentNIM  string           `json:"student_nim"`
	StudentName string           `json:"student_name"`
}

// Course, Class and Schedule are the full rows carried by catalog CRUD events.
type Course struct {
	CourseID   string `json:"course_id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Credits    int    `json:"credits"`
	LecturerID string `json:"lecturer_id"`
}

type Class struct {
	ClassID  string `json:"class_id"`
	Semester string `json:"semester"`
	Major    string `json:"major"`
	Group    string `json:"group"`
}

type Schedule struct {
	ScheduleID string `json:"schedule_id"`
	ClassID    string `json:"class_id"`
	CourseID   string `json:"course_id"`
	DayOfWeek  string `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Room       string `json:"room,omitempty"`
}

// Deleted carries the identity of a removed catalog row.
type Deleted struct {
	ID string `json:"id"`
}

// Decode unmarshals the payload into the variant matching the type tag.
// Callers dispatch on the returned value with a type switch; the default arm
// handles ErrUnknownType by logging and skipping.
func (e Envelope) Decode() (any, error) {
	var payload any
	switch e.Type {
	case TypeStudentAdded:
		payload = &StudentAdded{}
	case TypeStudentUpdated:
		payload = &StudentUpdated{}
	case TypeSessionOpened, TypeSessionClosed:
		payload = &Session{}
	case TypeAttendanceRecorded:
		payload = &AttendanceRecorded{}
	case TypeCourseAdded, TypeCourseUpdated:
		payload = &Course{}
	case TypeClassAdded, TypeClassUpdated:
		payload = &Class{}
	case TypeScheduleAdded, TypeScheduleUpdated:
		payload = &Schedule{}
	case TypeCourseDeleted, TypeClassDeleted, TypeScheduleDeleted:
		payload = &Deleted{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
	if err := json.Unmarshal(e.Data, payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return payload, nil
}
