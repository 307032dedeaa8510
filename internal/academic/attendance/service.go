package attendance

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/academic/models"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/events"
	"rollcall/pkg/platform/sentinel"
)

// Sessions is the read slice of the session store the recorder needs.
type Sessions interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

// StudentDirectory is the read slice of the replicated student directory.
// Recording consults the local replica only, never the upstream registry.
type StudentDirectory interface {
	FindByID(ctx context.Context, id string) (*models.StudentReplica, error)
}

// Publisher is the slice of the event producer the recorder needs.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, env events.Envelope) error
}

// Service records attendance against open sessions. Duplicate protection is
// the store's uniqueness constraint on (session_id, student_id).
type Service struct {
	records   Store
	sessions  Sessions
	students  StudentDirectory
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(records Store, sessions Sessions, students StudentDirectory, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		records:   records,
		sessions:  sessions,
		students:  students,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordInput carries the fields of one attendance submission. An empty
// status defaults to present.
type RecordInput struct {
	SessionID string
	StudentID string
	Status    string
}

// Record stores one attendance fact. The session must exist and still be
// open, and the student must be known to the local replica. A student already
// recorded for the session is a conflict.
func (s *Service) Record(ctx context.Context, in RecordInput) (*models.Attendance, error) {
	if in.SessionID == "" || in.StudentID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "session_id and student_id are required")
	}
	status, err := models.ParseStatus(in.Status)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}

	sess, err := s.sessions.FindByID(ctx, in.SessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if !sess.IsOpen {
		return nil, dErrors.New(dErrors.CodeForbidden, "session is closed")
	}

	student, err := s.students.FindByID(ctx, in.StudentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
	}

	record := &models.Attendance{
		ID:         uuid.NewString(),
		SessionID:  in.SessionID,
		StudentID:  in.StudentID,
		Status:     status,
		RecordedAt: s.now(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "attendance already recorded for this student in this session")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attendance")
		}
	}

	env, err := events.New(events.TypeAttendanceRecorded, events.AttendanceRecorded{
		Record: events.AttendanceRecord{
			AttendanceID: record.ID,
			SessionID:    record.SessionID,
			StudentID:    record.StudentID,
			Status:       string(record.Status),
			RecordedAt:   record.RecordedAt,
		},
		StudentNIM:  student.NIM,
		StudentName: student.Name,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, events.TopicAcademicEvents, record.SessionID, env)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "attendance event lost",
			"attendance_id", record.ID,
			"session_id", record.SessionID,
			"error", err,
		)
	}
	return record, nil
}

// RosterEntry is one attendance record joined with the replica's display
// fields. NIM and Name are empty when the replica has no row for the student
// anymore.
type RosterEntry struct {
	Record      models.Attendance
	StudentNIM  string
	StudentName string
}

// SessionRoster returns the session's records enriched with student display
// fields, sorted by NIM.
func (s *Service) SessionRoster(ctx context.Context, sessionID string) ([]RosterEntry, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	records, err := s.records.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list attendance")
	}

	out := make([]RosterEntry, 0, len(records))
	for _, r := range records {
		entry := RosterEntry{Record: *r}
		student, err := s.students.FindByID(ctx, r.StudentID)
		switch {
		case err == nil:
			entry.StudentNIM = student.NIM
			entry.StudentName = student.Name
		case errors.Is(err, sentinel.ErrNotFound):
			// Replica gap: keep the record, leave display fields empty.
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentNIM < out[j].StudentNIM })
	return out, nil
}

// ListByStudent returns a student's attendance history across sessions.
func (s *Service) ListByStudent(ctx context.Context, studentID string) ([]*models.Attendance, error) {
	out, err := s.records.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list attendance")
	}
	return out, nil
}
