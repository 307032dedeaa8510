// Package flow exercises the full publish/consume path across services using
// in-memory stores and a synchronous broker stand-in.
package flow

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/academic/attendance"
	"rollcall/internal/academic/catalog"
	"rollcall/internal/academic/replica"
	"rollcall/internal/academic/session"
	"rollcall/internal/analytics/sink"
	analyticsstore "rollcall/internal/analytics/store"
	"rollcall/internal/platform/auth"
	"rollcall/internal/platform/kafka/consumer"
	registryservice "rollcall/internal/registry/service"
	registrystore "rollcall/internal/registry/store"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/events"
)

// bus delivers published envelopes synchronously to every handler subscribed
// to the topic, mimicking the broker's at-least-once fanout to consumer
// groups.
type bus struct {
	t        *testing.T
	handlers map[string][]consumer.Handler
	offsets  map[string]int64
}

func newBus(t *testing.T) *bus {
	return &bus{t: t, handlers: make(map[string][]consumer.Handler), offsets: make(map[string]int64)}
}

func (b *bus) subscribe(topic string, h consumer.Handler) {
	b.handlers[topic] = append(b.handlers[topic], h)
}

func (b *bus) Publish(ctx context.Context, topic, key string, env events.Envelope) error {
	raw, err := env.Encode()
	require.NoError(b.t, err)
	offset := b.offsets[topic]
	b.offsets[topic] = offset + 1
	for _, h := range b.handlers[topic] {
		// Handler errors mean "skip", as in the real poll loop.
		_ = h.Handle(ctx, &consumer.Message{Topic: topic, Offset: offset, Key: []byte(key), Value: raw})
	}
	return nil
}

type world struct {
	registry    *registryservice.Service
	catalog     *catalog.Service
	sessions    *session.Service
	attendances *attendance.Service
	logs        *analyticsstore.InMemory
	replicas    *replica.InMemory
}

func newWorld(t *testing.T) *world {
	log := slog.New(slog.DiscardHandler)
	b := newBus(t)

	replicas := replica.NewInMemory()
	b.subscribe(events.TopicStudentEvents, replica.NewReplicator(replicas, log))

	logs := analyticsstore.NewInMemory()
	analyticsSink := sink.New(logs, log)
	b.subscribe(events.TopicStudentEvents, analyticsSink)
	b.subscribe(events.TopicAcademicEvents, analyticsSink)

	catalogStore := catalog.NewInMemory()
	sessionStore := session.NewInMemory()

	return &world{
		registry:    registryservice.New(registrystore.NewInMemory(), b, log),
		catalog:     catalog.NewService(catalogStore, b, log),
		sessions:    session.NewService(sessionStore, catalogStore, b, log),
		attendances: attendance.NewService(attendance.NewInMemory(), sessionStore, replicas, b, log),
		logs:        logs,
		replicas:    replicas,
	}
}

var lecturer = auth.Principal{LecturerID: "lect-1", NIDN: "001"}

// TestAttendanceFlow runs the whole happy path: register a student, build the
// schedule, open a session, record attendance, close, and verify the close is
// final.
func TestAttendanceFlow(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	student, err := w.registry.AddStudent(ctx, registryservice.AddStudentInput{
		NIM: "231401001", Name: "Budi", Major: "Informatics",
	})
	require.NoError(t, err)

	// The replica converged synchronously through the bus.
	row, err := w.replicas.FindByNIM(ctx, "231401001")
	require.NoError(t, err)
	assert.Equal(t, student.ID, row.StudentID)

	course, err := w.catalog.CreateCourse(ctx, catalog.CourseInput{
		Code: "CS-301", Name: "Distributed Systems", Credits: 3, LecturerID: lecturer.LecturerID,
	})
	require.NoError(t, err)
	class, err := w.catalog.CreateClass(ctx, catalog.ClassInput{Semester: "5", Major: "Informatics", Group: "A"})
	require.NoError(t, err)
	sched, err := w.catalog.CreateSchedule(ctx, catalog.ScheduleInput{
		ClassID: class.ID, CourseID: course.ID,
		DayOfWeek: "monday", StartTime: "08:00", EndTime: "10:00", Room: "A-101",
	})
	require.NoError(t, err)

	sess, err := w.sessions.Open(ctx, lecturer, sched.ID, "2027-03-15")
	require.NoError(t, err)

	record, err := w.attendances.Record(ctx, attendance.RecordInput{
		SessionID: sess.ID, StudentID: student.ID, Status: "present",
	})
	require.NoError(t, err)

	roster, err := w.attendances.SessionRoster(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, record.ID, roster[0].Record.ID)
	assert.Equal(t, "231401001", roster[0].StudentNIM)

	_, err = w.sessions.Close(ctx, lecturer, sess.ID)
	require.NoError(t, err)

	// Recording after close is rejected and the close is final.
	_, err = w.attendances.Record(ctx, attendance.RecordInput{SessionID: sess.ID, StudentID: student.ID})
	assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))
	_, err = w.sessions.Close(ctx, lecturer, sess.ID)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
}

// TestAnalyticsSeesEveryEvent checks the event log captured the full story in
// order of delivery.
func TestAnalyticsSeesEveryEvent(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	student, err := w.registry.AddStudent(ctx, registryservice.AddStudentInput{
		NIM: "231401001", Name: "Budi", Major: "Informatics",
	})
	require.NoError(t, err)
	_, err = w.registry.UpdateStudent(ctx, student.ID, registryservice.UpdateStudentInput{Name: "Budi Revised"})
	require.NoError(t, err)

	course, err := w.catalog.CreateCourse(ctx, catalog.CourseInput{
		Code: "CS-301", Name: "Distributed Systems", Credits: 3, LecturerID: lecturer.LecturerID,
	})
	require.NoError(t, err)
	class, err := w.catalog.CreateClass(ctx, catalog.ClassInput{Semester: "5", Major: "Informatics", Group: "A"})
	require.NoError(t, err)
	sched, err := w.catalog.CreateSchedule(ctx, catalog.ScheduleInput{
		ClassID: class.ID, CourseID: course.ID,
		DayOfWeek: "monday", StartTime: "08:00", EndTime: "10:00",
	})
	require.NoError(t, err)

	sess, err := w.sessions.Open(ctx, lecturer, sched.ID, "2027-03-15")
	require.NoError(t, err)
	_, err = w.attendances.Record(ctx, attendance.RecordInput{SessionID: sess.ID, StudentID: student.ID})
	require.NoError(t, err)
	_, err = w.sessions.Close(ctx, lecturer, sess.ID)
	require.NoError(t, err)

	counts, err := w.logs.CountByType(ctx)
	require.NoError(t, err)
	for _, eventType := range []string{
		events.TypeStudentAdded,
		events.TypeStudentUpdated,
		events.TypeCourseAdded,
		events.TypeClassAdded,
		events.TypeScheduleAdded,
		events.TypeSessionOpened,
		events.TypeAttendanceRecorded,
		events.TypeSessionClosed,
	} {
		assert.Equal(t, int64(1), counts[eventType], eventType)
	}

	// Replica display fields follow the update.
	row, err := w.replicas.FindByID(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Budi Revised", row.Name)
	assert.Equal(t, "231401001", row.NIM)
}
