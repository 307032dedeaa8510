package models

import "time"

// EventLog is one consumed event appended to the audit log. Rows are
// append-only and intentionally not deduplicated: redelivered events appear
// twice, and the duplicate itself is a useful delivery signal.
type EventLog struct {
	ID         int64
	Topic      string
	Partition  int32
	Offset     int64
	Type       string
	TraceID    string
	Payload    []byte
	ProducedAt time.Time
	ConsumedAt time.Time
	// SavedAt is when the row hit storage, set by the store on Append.
	SavedAt time.Time
	// LatencyMS is the producer-to-consumer delay in milliseconds.
	LatencyMS int64
	// ProducerLatencyMS is the producer-measured processing duration
	// carried in the envelope, zero when the producer did not report one.
	ProducerLatencyMS int64
}
