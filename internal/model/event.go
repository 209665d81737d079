package model

import "time"

type LifecycleEventType string

const (
	EventListingStatusChanged LifecycleEventType = "ListingStatusChanged"
	EventListingFinished      LifecycleEventType = "ListingFinished"
)

type FinishReason string

const (
	FinishReasonDeleted   FinishReason = "deleted"
	FinishReasonCompleted FinishReason = "completed"
	FinishReasonExpired   FinishReason = "expired"
)

// LifecycleEvent is published on every listing transition. Consumers must be idempotent:
// delivery is at-least-once.
type LifecycleEvent struct {
	EventID    string             `json:"event_id"`
	EventType  LifecycleEventType `json:"event_type"`
	ListingID  string             `json:"listing_id"` // public id
	SellerID   string             `json:"seller_id"`
	From       ListingStatus      `json:"from,omitempty"`
	To         ListingStatus      `json:"to,omitempty"`
	Reason     FinishReason       `json:"reason,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}
