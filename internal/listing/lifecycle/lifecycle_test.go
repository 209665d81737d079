package lifecycle

import (
	"testing"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/apperror"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from   model.ListingStatus
		action Action
		to     model.ListingStatus
		ok     bool
	}{
		{model.ListingStatusDraft, ActionSubmit, model.ListingStatusWaiting, true},
		{model.ListingStatusRejected, ActionSubmit, model.ListingStatusWaiting, true},
		{model.ListingStatusActive, ActionSubmit, "", false},
		{model.ListingStatusWaiting, ActionApprove, model.ListingStatusActive, true},
		{model.ListingStatusDraft, ActionApprove, "", false},
		{model.ListingStatusWaiting, ActionReject, model.ListingStatusRejected, true},
		{model.ListingStatusActive, ActionReject, "", false},
		{model.ListingStatusActive, ActionFinish, model.ListingStatusCompleted, true},
		{model.ListingStatusWaiting, ActionFinish, model.ListingStatusCompleted, true},
		{model.ListingStatusDraft, ActionFinish, "", false},
		{model.ListingStatusActive, ActionExpire, model.ListingStatusExpired, true},
		{model.ListingStatusExpired, ActionExpire, "", false},
		{model.ListingStatusCompleted, ActionSubmit, "", false},
		{model.ListingStatusSuspended, ActionApprove, "", false},
		{model.ListingStatusActive, ActionEdit, model.ListingStatusWaiting, true},
		{model.ListingStatusWaiting, ActionEdit, model.ListingStatusDraft, true},
		{model.ListingStatusExpired, ActionEdit, model.ListingStatusDraft, true},
		{model.ListingStatusRejected, ActionEdit, model.ListingStatusDraft, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.action)+"_from_"+string(tt.from), func(t *testing.T) {
			to, err := Next(tt.from, tt.action)
			if !tt.ok {
				require.Error(t, err)
				assert.True(t, apperror.IsKind(err, apperror.KindInvalidStateTransition))
				assert.Equal(t, tt.from, to)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestNext_ErrorNamesActionAndState(t *testing.T) {
	_, err := Next(model.ListingStatusDraft, ActionApprove)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "cannot approve a listing in status DRAFT", appErr.Detail)
}

func TestMachine_ApproveSetsPublicationWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(0)
	m.Now = func() time.Time { return now }

	reason := "blurry photos"
	l := &model.Listing{Status: model.ListingStatusWaiting, RejectReason: &reason}
	from, err := m.Apply(l, ActionApprove, "")
	require.NoError(t, err)

	assert.Equal(t, model.ListingStatusWaiting, from)
	assert.Equal(t, model.ListingStatusActive, l.Status)
	require.NotNil(t, l.PublishedAt)
	require.NotNil(t, l.ExpiresAt)
	assert.Equal(t, now, *l.PublishedAt)
	assert.Equal(t, now.Add(30*24*time.Hour), *l.ExpiresAt)
	assert.Nil(t, l.RejectReason)
}

func TestMachine_RejectKeepsReason(t *testing.T) {
	m := NewMachine(time.Hour)
	l := &model.Listing{Status: model.ListingStatusWaiting}

	_, err := m.Apply(l, ActionReject, "prohibited item")
	require.NoError(t, err)
	assert.Equal(t, model.ListingStatusRejected, l.Status)
	require.NotNil(t, l.RejectReason)
	assert.Equal(t, "prohibited item", *l.RejectReason)

	_, err = m.Apply(l, ActionSubmit, "")
	require.NoError(t, err)
	assert.Nil(t, l.RejectReason)
}

func TestMachine_FailedTransitionLeavesListingUntouched(t *testing.T) {
	m := NewMachine(time.Hour)
	l := &model.Listing{Status: model.ListingStatusDraft}

	_, err := m.Apply(l, ActionApprove, "")
	require.Error(t, err)
	assert.Equal(t, model.ListingStatusDraft, l.Status)
	assert.Nil(t, l.PublishedAt)
}
