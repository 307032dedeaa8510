//go:build integration

package session_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rollcall/internal/academic/catalog"
	"rollcall/internal/academic/models"
	"rollcall/internal/academic/session"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/testutil/containers"
)

type PostgresSessionSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	store      *session.Postgres
	catalog    *catalog.Postgres
	scheduleID string
}

func TestPostgresSessionSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSessionSuite))
}

func (s *PostgresSessionSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())

	schema, err := os.ReadFile("../../../migrations/academic.sql")
	s.Require().NoError(err)
	s.postgres.Apply(s.T(), string(schema))

	s.store = session.NewPostgres(s.postgres.Pool)
	s.catalog = catalog.NewPostgres(s.postgres.Pool)
}

func (s *PostgresSessionSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "attendances", "sessions", "schedules", "classes", "courses"))

	now := time.Now()
	course := &models.Course{
		ID: uuid.NewString(), Code: "CS-301", Name: "Distributed Systems",
		Credits: 3, LecturerID: "lect-1", CreatedAt: now, UpdatedAt: now,
	}
	s.Require().NoError(s.catalog.CreateCourse(ctx, course))

	class := &models.Class{
		ID: uuid.NewString(), Semester: "5", Major: "Informatics", Group: "A",
		CreatedAt: now, UpdatedAt: now,
	}
	s.Require().NoError(s.catalog.CreateClass(ctx, class))

	sched := &models.Schedule{
		ID: uuid.NewString(), ClassID: class.ID, CourseID: course.ID,
		DayOfWeek: "monday", StartTime: "08:00", EndTime: "10:00",
		CreatedAt: now, UpdatedAt: now,
	}
	s.Require().NoError(s.catalog.CreateSchedule(ctx, sched))
	s.scheduleID = sched.ID
}

func (s *PostgresSessionSuite) newSession(date string) *models.Session {
	return &models.Session{
		ID:          uuid.NewString(),
		ScheduleID:  s.scheduleID,
		SessionDate: date,
		OpenedAt:    time.Now(),
		IsOpen:      true,
	}
}

func (s *PostgresSessionSuite) TestSlotUniqueness() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newSession("2027-03-15")))

	err := s.store.Create(ctx, s.newSession("2027-03-15"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	s.Require().NoError(s.store.Create(ctx, s.newSession("2027-03-16")))
}

func (s *PostgresSessionSuite) TestCreateUnknownSchedule() {
	sess := s.newSession("2027-03-15")
	sess.ScheduleID = uuid.NewString()
	err := s.store.Create(context.Background(), sess)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSessionSuite) TestCloseTransition() {
	ctx := context.Background()
	sess := s.newSession("2027-03-15")
	s.Require().NoError(s.store.Create(ctx, sess))

	closed, err := s.store.Close(ctx, sess.ID, time.Now())
	s.Require().NoError(err)
	s.Require().NotNil(closed.ClosedAt)
	s.Equal(sess.ScheduleID, closed.ScheduleID)

	_, err = s.store.Close(ctx, sess.ID, time.Now())
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.Close(ctx, uuid.NewString(), time.Now())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentCloseSingleWinner drives the conditional UPDATE from many
// goroutines; the row lock serializes them and exactly one sees is_open=true.
func (s *PostgresSessionSuite) TestConcurrentCloseSingleWinner() {
	ctx := context.Background()
	sess := s.newSession("2027-03-15")
	s.Require().NoError(s.store.Create(ctx, sess))

	const goroutines = 20
	var wg sync.WaitGroup
	var wins, alreadyClosed atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Close(ctx, sess.ID, time.Now())
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState):
				alreadyClosed.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), alreadyClosed.Load())
}
