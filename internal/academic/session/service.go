package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/academic/models"
	"rollcall/internal/platform/auth"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/events"
	"rollcall/pkg/platform/sentinel"
)

// ScheduleOwners resolves the lecturer owning a schedule, via the
// schedule -> course join. Only the owner may open or close sessions.
type ScheduleOwners interface {
	ScheduleOwner(ctx context.Context, scheduleID string) (string, error)
}

// Publisher is the slice of the event producer the session service needs.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, env events.Envelope) error
}

// Service drives the session lifecycle: a single one-way transition from open
// to closed, with ownership checked against the schedule's course lecturer.
type Service struct {
	sessions  Store
	owners    ScheduleOwners
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(sessions Store, owners ScheduleOwners, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		sessions:  sessions,
		owners:    owners,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Open creates a new open session for the schedule on the given date. The
// caller must own the schedule's course. A session already existing for the
// (schedule, date) pair is a conflict regardless of whether it is still open.
func (s *Service) Open(ctx context.Context, principal auth.Principal, scheduleID, sessionDate string) (*models.Session, error) {
	if scheduleID == "" || sessionDate == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "schedule_id and session_date are required")
	}
	if _, err := time.Parse("2006-01-02", sessionDate); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "session_date must be YYYY-MM-DD")
	}
	if err := s.authorize(ctx, principal, scheduleID); err != nil {
		return nil, err
	}

	sess := &models.Session{
		ID:          uuid.NewString(),
		ScheduleID:  scheduleID,
		SessionDate: sessionDate,
		OpenedAt:    s.now(),
		IsOpen:      true,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "session already exists for this schedule and date")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "schedule not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open session")
		}
	}

	s.logger.InfoContext(ctx, "session opened",
		"session_id", sess.ID,
		"schedule_id", scheduleID,
		"session_date", sessionDate,
		"lecturer_id", principal.LecturerID,
	)
	s.publish(ctx, events.TypeSessionOpened, sess)
	return sess, nil
}

// Close transitions the session to closed. The transition is one-way: closing
// an already-closed session is a conflict, and under concurrent closes exactly
// one caller succeeds.
func (s *Service) Close(ctx context.Context, principal auth.Principal, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "session id is required")
	}

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, wrapSessionErr(err)
	}
	if err := s.authorize(ctx, principal, sess.ScheduleID); err != nil {
		return nil, err
	}

	closed, err := s.sessions.Close(ctx, sessionID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeConflict, "session is already closed")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to close session")
		}
	}

	s.logger.InfoContext(ctx, "session closed",
		"session_id", closed.ID,
		"schedule_id", closed.ScheduleID,
		"lecturer_id", principal.LecturerID,
	)
	s.publish(ctx, events.TypeSessionClosed, closed)
	return closed, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, wrapSessionErr(err)
	}
	return sess, nil
}

func (s *Service) ListBySchedule(ctx context.Context, scheduleID string) ([]*models.Session, error) {
	out, err := s.sessions.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sessions")
	}
	return out, nil
}

func (s *Service) ListOpen(ctx context.Context) ([]*models.Session, error) {
	out, err := s.sessions.ListOpen(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list open sessions")
	}
	return out, nil
}

func (s *Service) authorize(ctx context.Context, principal auth.Principal, scheduleID string) error {
	owner, err := s.owners.ScheduleOwner(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "schedule not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve schedule owner")
	}
	if owner != principal.LecturerID {
		return dErrors.New(dErrors.CodeForbidden, "schedule belongs to another lecturer")
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, sess *models.Session) {
	env, err := events.New(eventType, events.Session{
		SessionID:   sess.ID,
		ScheduleID:  sess.ScheduleID,
		SessionDate: sess.SessionDate,
		OpenedAt:    sess.OpenedAt,
		ClosedAt:    sess.ClosedAt,
		IsOpen:      sess.IsOpen,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, events.TopicAcademicEvents, sess.ID, env)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "session event lost",
			"type", eventType,
			"session_id", sess.ID,
			"error", err,
		)
	}
}

func wrapSessionErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "session store failure")
}
