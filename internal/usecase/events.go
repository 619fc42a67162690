package usecase

import (
	"context"
	"time"
)

const (
	EventEnrichmentCompleted = "enrichment.completed"
	EventResultRecorded      = "result.recorded"
)

// Event is a notification for downstream consumers such as the prediction
// engine. Payload must be JSON encodable.
type Event struct {
	Type       string    `json:"type"`
	MatchID    int64     `json:"match_id"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, Event) error {
	return nil
}
