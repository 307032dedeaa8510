package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rollcall/internal/registry/models"
	"rollcall/pkg/platform/sentinel"
)

type StudentStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *StudentStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestStudentStoreSuite(t *testing.T) {
	suite.Run(t, new(StudentStoreSuite))
}

func (s *StudentStoreSuite) newStudent(nim, name string) *models.Student {
	now := time.Now()
	return &models.Student{
		ID:        uuid.NewString(),
		NIM:       nim,
		Name:      name,
		Major:     "Informatics",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TestCreationAndLookups verifies creation plus both lookup paths.
func (s *StudentStoreSuite) TestCreationAndLookups() {
	student := s.newStudent("231401001", "Budi")
	s.Require().NoError(s.store.Create(s.ctx, student))

	s.Run("finds by id", func() {
		found, err := s.store.FindByID(s.ctx, student.ID)
		s.Require().NoError(err)
		s.Equal("Budi", found.Name)
	})

	s.Run("finds by nim", func() {
		found, err := s.store.FindByNIM(s.ctx, "231401001")
		s.Require().NoError(err)
		s.Equal(student.ID, found.ID)
	})

	s.Run("returns ErrNotFound for unknown keys", func() {
		_, err := s.store.FindByID(s.ctx, uuid.NewString())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.FindByNIM(s.ctx, "000000000")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestNIMUniqueness verifies the natural-key constraint.
func (s *StudentStoreSuite) TestNIMUniqueness() {
	s.Require().NoError(s.store.Create(s.ctx, s.newStudent("231401001", "Budi")))

	err := s.store.Create(s.ctx, s.newStudent("231401001", "Other"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

// TestUpdate verifies display fields change while the NIM stays.
func (s *StudentStoreSuite) TestUpdate() {
	student := s.newStudent("231401001", "Budi")
	s.Require().NoError(s.store.Create(s.ctx, student))

	student.Name = "Budi Revised"
	student.Major = "Data Science"
	s.Require().NoError(s.store.Update(s.ctx, student))

	found, err := s.store.FindByNIM(s.ctx, "231401001")
	s.Require().NoError(err)
	s.Equal("Budi Revised", found.Name)
	s.Equal("Data Science", found.Major)

	s.Run("unknown id is not found", func() {
		ghost := s.newStudent("231401099", "Ghost")
		s.Require().ErrorIs(s.store.Update(s.ctx, ghost), sentinel.ErrNotFound)
	})
}

// TestListOrdering verifies the NIM sort order.
func (s *StudentStoreSuite) TestListOrdering() {
	for _, st := range []*models.Student{
		s.newStudent("231401003", "Cici"),
		s.newStudent("231401001", "Ani"),
		s.newStudent("231401002", "Budi"),
	} {
		s.Require().NoError(s.store.Create(s.ctx, st))
	}

	students, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(students, 3)
	s.Equal("231401001", students[0].NIM)
	s.Equal("231401002", students[1].NIM)
	s.Equal("231401003", students[2].NIM)
}
