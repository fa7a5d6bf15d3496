// Package converter maps between usecase entities and their PostgreSQL row
// models. Conversions are hand-written: the teacher generates this layer
// with goverter, but running codegen is not available here.
package converter

import "github.com/met-galaxy/field-engine/internal/usecase"

// OutboxEventConverter converts OutboxEvent between the usecase layer and
// its PostgreSQL row representation.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type outboxEventConverter struct{}

func NewOutboxEventConverter() OutboxEventConverter {
	return &outboxEventConverter{}
}

func (outboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:                  entity.ID,
		EventID:             entity.EventID,
		EventType:           string(entity.EventType),
		Key:                 entity.Key,
		Payload:             entity.Payload,
		Status:              string(entity.Status),
		CreatedAt:           entity.CreatedAt,
		ProcessingStartedAt: entity.ProcessingStartedAt,
		ProcessedAt:         entity.ProcessedAt,
	}
}

func (outboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:                  model.ID,
		EventID:             model.EventID,
		EventType:           usecase.OutboxEventType(model.EventType),
		Key:                 model.Key,
		Payload:             model.Payload,
		Status:              usecase.OutboxStatus(model.Status),
		CreatedAt:           model.CreatedAt,
		ProcessingStartedAt: model.ProcessingStartedAt,
		ProcessedAt:         model.ProcessedAt,
	}
}

func (c outboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	out := make([]*usecase.OutboxEvent, len(models))
	for i, m := range models {
		out[i] = c.ToEntity(m)
	}
	return out
}
