package replica

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/platform/kafka/consumer"
	"rollcall/pkg/events"
	"rollcall/pkg/platform/sentinel"
)

func newTestReplicator(t *testing.T) (*Replicator, *InMemory) {
	t.Helper()
	store := NewInMemory()
	return NewReplicator(store, slog.New(slog.DiscardHandler)), store
}

func message(t *testing.T, eventType string, payload any) *consumer.Message {
	t.Helper()
	env, err := events.New(eventType, payload)
	require.NoError(t, err)
	raw, err := env.Encode()
	require.NoError(t, err)
	return &consumer.Message{Topic: events.TopicStudentEvents, Value: raw}
}

func TestReplicatorAddsStudent(t *testing.T) {
	r, store := newTestReplicator(t)
	ctx := context.Background()

	msg := message(t, events.TypeStudentAdded, events.StudentAdded{
		ID: "s-1", NIM: "231401001", Name: "Budi", Major: "Informatics",
	})
	require.NoError(t, r.Handle(ctx, msg))

	row, err := store.FindByNIM(ctx, "231401001")
	require.NoError(t, err)
	assert.Equal(t, "s-1", row.StudentID)
	assert.Equal(t, "Budi", row.Name)
}

// Redelivering the same STUDENT_ADDED must converge on a single row, not
// duplicate or error.
func TestReplicatorIdempotentRedelivery(t *testing.T) {
	r, store := newTestReplicator(t)
	ctx := context.Background()

	msg := message(t, events.TypeStudentAdded, events.StudentAdded{
		ID: "s-1", NIM: "231401001", Name: "Budi", Major: "Informatics",
	})
	require.NoError(t, r.Handle(ctx, msg))
	require.NoError(t, r.Handle(ctx, msg))

	row, err := store.FindByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "231401001", row.NIM)
}

// An update arriving before its add (cross-partition reordering) must not be
// lost: the display fields land first and the add fills in the NIM.
func TestReplicatorUpdateBeforeAdd(t *testing.T) {
	r, store := newTestReplicator(t)
	ctx := context.Background()

	update := message(t, events.TypeStudentUpdated, events.StudentUpdated{
		ID: "s-1", Name: "Budi Revised", Major: "Data Science",
	})
	require.NoError(t, r.Handle(ctx, update))

	row, err := store.FindByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, row.NIM)
	assert.Equal(t, "Budi Revised", row.Name)

	add := message(t, events.TypeStudentAdded, events.StudentAdded{
		ID: "s-1", NIM: "231401001", Name: "Budi", Major: "Informatics",
	})
	require.NoError(t, r.Handle(ctx, add))

	row, err = store.FindByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "231401001", row.NIM)
}

func TestReplicatorNIMCollisionDropped(t *testing.T) {
	r, store := newTestReplicator(t)
	ctx := context.Background()

	first := message(t, events.TypeStudentAdded, events.StudentAdded{
		ID: "s-1", NIM: "231401001", Name: "Budi", Major: "Informatics",
	})
	require.NoError(t, r.Handle(ctx, first))

	// Same NIM under a different id: the replica keeps the existing row and
	// reports success so the offset commits.
	collision := message(t, events.TypeStudentAdded, events.StudentAdded{
		ID: "s-2", NIM: "231401001", Name: "Impostor", Major: "Informatics",
	})
	require.NoError(t, r.Handle(ctx, collision))

	row, err := store.FindByNIM(ctx, "231401001")
	require.NoError(t, err)
	assert.Equal(t, "s-1", row.StudentID)

	_, err = store.FindByID(ctx, "s-2")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestReplicatorSkipsMalformed(t *testing.T) {
	r, store := newTestReplicator(t)
	ctx := context.Background()

	err := r.Handle(ctx, &consumer.Message{Value: []byte(`{"no":"type"}`)})
	require.Error(t, err)

	err = r.Handle(ctx, &consumer.Message{Value: []byte(`garbage`)})
	require.Error(t, err)

	_, err = store.FindByID(ctx, "s-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestReplicatorReportsUnknownType(t *testing.T) {
	r, _ := newTestReplicator(t)

	err := r.Handle(context.Background(), &consumer.Message{
		Value: []byte(`{"type":"STUDENT_GRADUATED","data":{},"timestamp":1,"trace_id":"t"}`),
	})
	require.ErrorIs(t, err, events.ErrUnknownType)
}
