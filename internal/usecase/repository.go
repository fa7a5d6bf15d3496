package usecase

import "context"

// OutboxRepository persists and drains analytics events transactionally
// alongside the request that produced them. GetAndMarkAsProcessing is scoped
// to one eventType at a time: the field-sampling engine relays exactly one
// kind of telemetry today (FieldChunkServedEvent), but a worker for a second
// event type would claim its own rows without racing this one.
type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, eventType OutboxEventType, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}
