package converter

import "time"

// OutboxEventModel represents one row of the outbox_events table.
type OutboxEventModel struct {
	ID                  int64      `db:"id"`
	EventID             string     `db:"event_id"`
	EventType           string     `db:"event_type"`
	Key                 int64      `db:"key"`
	Payload             []byte     `db:"payload"`
	Status              string     `db:"status"`
	CreatedAt           time.Time  `db:"created_at"`
	ProcessingStartedAt *time.Time `db:"processing_started_at"`
	ProcessedAt         *time.Time `db:"processed_at"`
}
