package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/academic/attendance"
	"rollcall/internal/academic/catalog"
	"rollcall/internal/academic/models"
	"rollcall/internal/academic/replica"
	"rollcall/internal/academic/session"
	"rollcall/internal/platform/auth"
	"rollcall/pkg/events"
)

func studentRow(id, nim, name string) *models.StudentReplica {
	return &models.StudentReplica{StudentID: id, NIM: nim, Name: name, Major: "Informatics", UpdatedAt: time.Now()}
}

// fakeVerifier accepts tokens of the form "lect:<id>".
type fakeVerifier struct{}

func (fakeVerifier) Verify(token string) (auth.Principal, error) {
	var id string
	if _, err := fmt.Sscanf(token, "lect:%s", &id); err != nil {
		return auth.Principal{}, errors.New("bad token")
	}
	return auth.Principal{LecturerID: id, NIDN: "001"}, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string, events.Envelope) error { return nil }

type testServer struct {
	router   chi.Router
	replicas *replica.InMemory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	pub := nopPublisher{}

	catalogStore := catalog.NewInMemory()
	replicas := replica.NewInMemory()
	sessions := session.NewInMemory()

	h := New(
		catalog.NewService(catalogStore, pub, log),
		session.NewService(sessions, catalogStore, pub, log),
		attendance.NewService(attendance.NewInMemory(), sessions, replicas, pub, log),
		fakeVerifier{},
		log,
	)
	router := chi.NewRouter()
	h.Register(router)
	return &testServer{router: router, replicas: replicas}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/courses", "/sessions", "/attendances"} {
		rec := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := ts.do(t, http.MethodGet, "/courses", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// setupSchedule creates course+class+schedule owned by lect-1 and returns the
// schedule id.
func (ts *testServer) setupSchedule(t *testing.T) string {
	t.Helper()
	course := decode[map[string]any](t, ts.do(t, http.MethodPost, "/courses", "lect:lect-1", map[string]any{
		"code": "CS-301", "name": "Distributed Systems", "credits": 3, "lecturer_id": "lect-1",
	}))
	class := decode[map[string]any](t, ts.do(t, http.MethodPost, "/classes", "lect:lect-1", map[string]any{
		"semester": "5", "major": "Informatics", "group": "A",
	}))
	rec := ts.do(t, http.MethodPost, "/schedules", "lect:lect-1", map[string]any{
		"class_id": class["id"], "course_id": course["id"],
		"day_of_week": "monday", "start_time": "08:00", "end_time": "10:00", "room": "A-101",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]any](t, rec)["id"].(string)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	scheduleID := ts.setupSchedule(t)

	rec := ts.do(t, http.MethodPost, "/sessions", "lect:lect-1", map[string]any{
		"schedule_id": scheduleID, "session_date": "2027-03-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess := decode[map[string]any](t, rec)
	sessionID := sess["id"].(string)
	assert.Equal(t, true, sess["is_open"])

	// Duplicate slot.
	rec = ts.do(t, http.MethodPost, "/sessions", "lect:lect-1", map[string]any{
		"schedule_id": scheduleID, "session_date": "2027-03-15",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Foreign lecturer cannot close.
	rec = ts.do(t, http.MethodPut, "/sessions/"+sessionID+"/close", "lect:lect-2", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPut, "/sessions/"+sessionID+"/close", "lect:lect-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	closed := decode[map[string]any](t, rec)
	assert.Equal(t, false, closed["is_open"])
	assert.NotEmpty(t, closed["closed_at"])

	// Second close conflicts.
	rec = ts.do(t, http.MethodPut, "/sessions/"+sessionID+"/close", "lect:lect-1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOpenSessionUnknownSchedule(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/sessions", "lect:lect-1", map[string]any{
		"schedule_id": "missing", "session_date": "2027-03-15",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttendanceOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	scheduleID := ts.setupSchedule(t)

	require.NoError(t, ts.replicas.Upsert(context.Background(), studentRow("s-1", "231401001", "Budi")))

	rec := ts.do(t, http.MethodPost, "/sessions", "lect:lect-1", map[string]any{
		"schedule_id": scheduleID, "session_date": "2027-03-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	sessionID := decode[map[string]any](t, rec)["id"].(string)

	rec = ts.do(t, http.MethodPost, "/attendances", "lect:lect-1", map[string]any{
		"session_id": sessionID, "student_id": "s-1", "status": "present",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Duplicate record.
	rec = ts.do(t, http.MethodPost, "/attendances", "lect:lect-1", map[string]any{
		"session_id": sessionID, "student_id": "s-1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown student.
	rec = ts.do(t, http.MethodPost, "/attendances", "lect:lect-1", map[string]any{
		"session_id": sessionID, "student_id": "s-ghost",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Roster carries the replica's display fields.
	rec = ts.do(t, http.MethodGet, "/sessions/"+sessionID+"/attendances", "lect:lect-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	roster := decode[[]map[string]any](t, rec)
	require.Len(t, roster, 1)
	assert.Equal(t, "231401001", roster[0]["student_nim"])
	assert.Equal(t, "Budi", roster[0]["student_name"])

	// Closed session rejects further records.
	rec = ts.do(t, http.MethodPut, "/sessions/"+sessionID+"/close", "lect:lect-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, "/attendances", "lect:lect-1", map[string]any{
		"session_id": sessionID, "student_id": "s-1",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRejectsUnknownJSONFields(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/courses", "lect:lect-1", map[string]any{
		"code": "CS-301", "name": "X", "credits": 3, "surprise": true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
