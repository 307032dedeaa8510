package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rollcall/internal/academic/models"
	"rollcall/pkg/platform/sentinel"
)

type SessionStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *SessionStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func (s *SessionStoreSuite) newSession(scheduleID, date string) *models.Session {
	return &models.Session{
		ID:          uuid.NewString(),
		ScheduleID:  scheduleID,
		SessionDate: date,
		OpenedAt:    time.Now(),
		IsOpen:      true,
	}
}

// TestSlotUniqueness verifies one session per (schedule, date), open or not.
func (s *SessionStoreSuite) TestSlotUniqueness() {
	first := s.newSession("sched-1", "2027-03-15")
	s.Require().NoError(s.store.Create(s.ctx, first))

	s.Run("rejects duplicate slot", func() {
		err := s.store.Create(s.ctx, s.newSession("sched-1", "2027-03-15"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("still rejects after close", func() {
		_, err := s.store.Close(s.ctx, first.ID, time.Now())
		s.Require().NoError(err)

		err = s.store.Create(s.ctx, s.newSession("sched-1", "2027-03-15"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("allows other date and schedule", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newSession("sched-1", "2027-03-16")))
		s.Require().NoError(s.store.Create(s.ctx, s.newSession("sched-2", "2027-03-15")))
	})
}

// TestCloseTransition verifies the one-way open to closed transition.
func (s *SessionStoreSuite) TestCloseTransition() {
	sess := s.newSession("sched-1", "2027-03-15")
	s.Require().NoError(s.store.Create(s.ctx, sess))

	s.Run("closes once", func() {
		closed, err := s.store.Close(s.ctx, sess.ID, time.Now())
		s.Require().NoError(err)
		s.False(closed.IsOpen)
		s.Require().NotNil(closed.ClosedAt)
	})

	s.Run("second close is invalid state", func() {
		_, err := s.store.Close(s.ctx, sess.ID, time.Now())
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown session is not found", func() {
		_, err := s.store.Close(s.ctx, uuid.NewString(), time.Now())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestListings verifies open filtering and schedule scoping.
func (s *SessionStoreSuite) TestListings() {
	a := s.newSession("sched-1", "2027-03-15")
	b := s.newSession("sched-1", "2027-03-16")
	c := s.newSession("sched-2", "2027-03-15")
	for _, sess := range []*models.Session{a, b, c} {
		s.Require().NoError(s.store.Create(s.ctx, sess))
	}
	_, err := s.store.Close(s.ctx, a.ID, time.Now())
	s.Require().NoError(err)

	open, err := s.store.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Len(open, 2)

	bySchedule, err := s.store.ListBySchedule(s.ctx, "sched-1")
	s.Require().NoError(err)
	s.Require().Len(bySchedule, 2)
	s.Equal("2027-03-15", bySchedule[0].SessionDate)
	s.Equal("2027-03-16", bySchedule[1].SessionDate)
}
