package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

// KafkaPublisher writes lifecycle events keyed by listing public id, so all events
// of one listing land on the same partition in order.
type KafkaPublisher struct {
	producer Producer
}

func NewKafkaPublisher(producer Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e model.LifecycleEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.EventType, err)
	}
	if err := p.producer.Publish(ctx, []byte(e.ListingID), payload); err != nil {
		return fmt.Errorf("publish %s for %s: %w", e.EventType, e.ListingID, err)
	}
	return nil
}

func StatusChanged(l *model.Listing, from model.ListingStatus, at time.Time) model.LifecycleEvent {
	return model.LifecycleEvent{
		EventID:    uuid.NewString(),
		EventType:  model.EventListingStatusChanged,
		ListingID:  l.PublicID,
		SellerID:   l.SellerID,
		From:       from,
		To:         l.Status,
		OccurredAt: at,
	}
}

func Finished(l *model.Listing, reason model.FinishReason, at time.Time) model.LifecycleEvent {
	return model.LifecycleEvent{
		EventID:    uuid.NewString(),
		EventType:  model.EventListingFinished,
		ListingID:  l.PublicID,
		SellerID:   l.SellerID,
		To:         l.Status,
		Reason:     reason,
		OccurredAt: at,
	}
}

// Decode parses a message value written by KafkaPublisher.
func Decode(value []byte) (model.LifecycleEvent, error) {
	var e model.LifecycleEvent
	if err := json.Unmarshal(value, &e); err != nil {
		return e, fmt.Errorf("decode lifecycle event: %w", err)
	}
	return e, nil
}

// Discard drops events. Used when no broker is configured.
type Discard struct{}

func (Discard) Publish(context.Context, model.LifecycleEvent) error { return nil }
