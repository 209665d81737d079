// Package lifecycle is the listing status state machine.
package lifecycle

import (
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/apperror"
	"github.com/fekuna/marketplace-listing-service/internal/model"
)

// DefaultTTL is how long an approved listing stays ACTIVE.
const DefaultTTL = 30 * 24 * time.Hour

type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionFinish  Action = "finish"
	ActionExpire  Action = "expire"
	ActionEdit    Action = "edit"
)

var transitions = map[Action]map[model.ListingStatus]model.ListingStatus{
	ActionSubmit: {
		model.ListingStatusDraft:    model.ListingStatusWaiting,
		model.ListingStatusRejected: model.ListingStatusWaiting,
	},
	ActionApprove: {
		model.ListingStatusWaiting: model.ListingStatusActive,
	},
	ActionReject: {
		model.ListingStatusWaiting: model.ListingStatusRejected,
	},
	ActionFinish: {
		model.ListingStatusActive:  model.ListingStatusCompleted,
		model.ListingStatusWaiting: model.ListingStatusCompleted,
	},
	ActionExpire: {
		model.ListingStatusActive: model.ListingStatusExpired,
	},
}

// Next returns the status reached by applying action to current. Editing always
// succeeds: ACTIVE goes back to moderation, anything else goes back to DRAFT.
func Next(current model.ListingStatus, action Action) (model.ListingStatus, error) {
	if action == ActionEdit {
		if current == model.ListingStatusActive {
			return model.ListingStatusWaiting, nil
		}
		return model.ListingStatusDraft, nil
	}

	if to, ok := transitions[action][current]; ok {
		return to, nil
	}
	return current, apperror.InvalidStateTransition(string(action), string(current))
}

// Machine applies transitions to a listing, maintaining the timestamps and reason
// that go with each target status.
type Machine struct {
	TTL time.Duration
	Now func() time.Time
}

func NewMachine(ttl time.Duration) *Machine {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Machine{TTL: ttl, Now: time.Now}
}

// Apply moves l to its next status and returns the status it left.
func (m *Machine) Apply(l *model.Listing, action Action, reason string) (model.ListingStatus, error) {
	from := l.Status
	to, err := Next(from, action)
	if err != nil {
		return from, err
	}

	now := m.Now()
	switch action {
	case ActionApprove:
		expires := now.Add(m.TTL)
		l.PublishedAt = &now
		l.ExpiresAt = &expires
		l.RejectReason = nil
	case ActionReject:
		if reason != "" {
			l.RejectReason = &reason
		} else {
			l.RejectReason = nil
		}
	case ActionSubmit, ActionEdit:
		l.RejectReason = nil
	}

	l.Status = to
	l.UpdatedAt = now
	return from, nil
}
