package sink

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/analytics/store"
	"rollcall/internal/platform/kafka/consumer"
	"rollcall/pkg/events"
)

func newTestSink(t *testing.T, now time.Time) (*Sink, *store.InMemory) {
	t.Helper()
	logs := store.NewInMemory()
	s := New(logs, slog.New(slog.DiscardHandler))
	s.now = func() time.Time { return now }
	return s, logs
}

func TestSinkAppendsEvent(t *testing.T) {
	consumedAt := time.Now()
	s, logs := newTestSink(t, consumedAt)

	env, err := events.New(events.TypeStudentAdded, events.StudentAdded{ID: "s-1", NIM: "231401001"})
	require.NoError(t, err)
	env = env.WithLatency(7 * time.Millisecond)
	env.Timestamp = consumedAt.Add(-250 * time.Millisecond).UnixMilli()
	raw, err := env.Encode()
	require.NoError(t, err)

	msg := &consumer.Message{Topic: events.TopicStudentEvents, Partition: 1, Offset: 42, Value: raw}
	require.NoError(t, s.Handle(context.Background(), msg))

	rows, err := logs.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, events.TypeStudentAdded, rows[0].Type)
	assert.Equal(t, env.TraceID, rows[0].TraceID)
	assert.Equal(t, int64(42), rows[0].Offset)
	assert.InDelta(t, 250, rows[0].LatencyMS, 1)
	assert.Equal(t, int64(7), rows[0].ProducerLatencyMS)
	assert.False(t, rows[0].SavedAt.IsZero())
}

// The sink does not deduplicate: a redelivered event appends a second row.
func TestSinkKeepsDuplicates(t *testing.T) {
	s, logs := newTestSink(t, time.Now())

	env, err := events.New(events.TypeSessionOpened, events.Session{SessionID: "sess-1"})
	require.NoError(t, err)
	raw, err := env.Encode()
	require.NoError(t, err)

	msg := &consumer.Message{Topic: events.TopicAcademicEvents, Value: raw}
	require.NoError(t, s.Handle(context.Background(), msg))
	require.NoError(t, s.Handle(context.Background(), msg))

	counts, err := logs.CountByType(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[events.TypeSessionOpened])
}

func TestSinkRejectsMalformed(t *testing.T) {
	s, logs := newTestSink(t, time.Now())

	err := s.Handle(context.Background(), &consumer.Message{Value: []byte(`not json`)})
	require.Error(t, err)

	rows, err := logs.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// Unknown event types still land in the log: the sink records deliveries, it
// does not interpret them.
func TestSinkKeepsUnknownTypes(t *testing.T) {
	s, logs := newTestSink(t, time.Now())

	raw := []byte(`{"type":"STUDENT_GRADUATED","data":{},"timestamp":1,"trace_id":"t-1"}`)
	require.NoError(t, s.Handle(context.Background(), &consumer.Message{Value: raw}))

	rows, err := logs.ListByType(context.Background(), "STUDENT_GRADUATED", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "t-1", rows[0].TraceID)
}
