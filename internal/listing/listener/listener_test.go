package listener

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/listing/filter"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	rows map[string]model.Listing
}

func (s *stubRepo) Create(context.Context, *model.Listing) error { return nil }
func (s *stubRepo) Update(context.Context, *model.Listing) error { return nil }
func (s *stubRepo) Delete(context.Context, int64) error          { return nil }

func (s *stubRepo) FindByPublicID(_ context.Context, publicID string) (*model.Listing, error) {
	l, ok := s.rows[publicID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (s *stubRepo) FindByPublicIDForUpdate(ctx context.Context, publicID string) (*model.Listing, error) {
	return s.FindByPublicID(ctx, publicID)
}

func (s *stubRepo) Search(context.Context, filter.Predicate, filter.Order, int, int) ([]model.ListingSummary, int, error) {
	return nil, 0, nil
}

func (s *stubRepo) ExpireOverdue(context.Context, time.Time, int) ([]model.Listing, error) {
	return nil, nil
}

type stubAttrs struct{}

func (stubAttrs) Replace(context.Context, int64, []model.ListingAttributeValue) error { return nil }

func (stubAttrs) LoadForListing(context.Context, int64) ([]model.ListingAttributeValue, error) {
	return []model.ListingAttributeValue{{Key: "mileage"}}, nil
}

type recordingIndex struct {
	mu          sync.Mutex
	failUpserts int
	upserted    []*model.Listing
	removed     []string
}

func (r *recordingIndex) Upsert(_ context.Context, l *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpserts > 0 {
		r.failUpserts--
		return errors.New("index unavailable")
	}
	r.upserted = append(r.upserted, l)
	return nil
}

func (r *recordingIndex) Remove(_ context.Context, publicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, publicID)
	return nil
}

func (r *recordingIndex) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.upserted), len(r.removed)
}

func newListener(idx *recordingIndex, consumer Consumer) *IndexListener {
	repo := &stubRepo{rows: map[string]model.Listing{
		"active":  {BaseModel: model.BaseModel{ID: 1}, PublicID: "active", Status: model.ListingStatusActive},
		"waiting": {BaseModel: model.BaseModel{ID: 2}, PublicID: "waiting", Status: model.ListingStatusWaiting},
	}}
	return NewIndexListener(consumer, repo, stubAttrs{}, idx, logger.NewNop())
}

func TestSync(t *testing.T) {
	tests := []struct {
		name    string
		event   model.LifecycleEvent
		upsert  bool
		removed bool
	}{
		{"active row is indexed", model.LifecycleEvent{EventType: model.EventListingStatusChanged, ListingID: "active"}, true, false},
		{"non-active row is removed", model.LifecycleEvent{EventType: model.EventListingStatusChanged, ListingID: "waiting"}, false, true},
		{"missing row is removed", model.LifecycleEvent{EventType: model.EventListingStatusChanged, ListingID: "gone"}, false, true},
		{"deleted is removed without lookup", model.LifecycleEvent{
			EventType: model.EventListingFinished, ListingID: "active", Reason: model.FinishReasonDeleted,
		}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := &recordingIndex{}
			require.NoError(t, newListener(idx, nil).Sync(context.Background(), tt.event))
			up, rm := idx.counts()
			assert.Equal(t, tt.upsert, up == 1)
			assert.Equal(t, tt.removed, rm == 1)
		})
	}
}

func TestSync_UpsertCarriesAttributes(t *testing.T) {
	idx := &recordingIndex{}
	e := model.LifecycleEvent{EventType: model.EventListingStatusChanged, ListingID: "active"}
	require.NoError(t, newListener(idx, nil).Sync(context.Background(), e))
	require.Len(t, idx.upserted, 1)
	assert.Len(t, idx.upserted[0].Attributes, 1)
}

type chanConsumer struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []int64
}

func (c *chanConsumer) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case m := <-c.msgs:
		return m, nil
	}
}

func (c *chanConsumer) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range msgs {
		c.committed = append(c.committed, m.Offset)
	}
	return nil
}

func (c *chanConsumer) commits() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.committed...)
}

func runListener(t *testing.T, l *IndexListener) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()
	return func() {
		cancel()
		<-done
	}
}

func activePayload(t *testing.T) []byte {
	t.Helper()
	payload, err := json.Marshal(model.LifecycleEvent{EventType: model.EventListingStatusChanged, ListingID: "active"})
	require.NoError(t, err)
	return payload
}

func TestStart_ProcessesMessagesAndSkipsGarbage(t *testing.T) {
	consumer := &chanConsumer{msgs: make(chan kafka.Message, 3)}
	idx := &recordingIndex{}
	l := newListener(idx, consumer)

	consumer.msgs <- kafka.Message{Offset: 0, Value: []byte("not json")}
	consumer.msgs <- kafka.Message{Offset: 1, Value: activePayload(t)}

	stop := runListener(t, l)
	assert.Eventually(t, func() bool {
		up, _ := idx.counts()
		return up == 1 && len(consumer.commits()) == 2
	}, time.Second, 5*time.Millisecond)
	stop()

	assert.Equal(t, []int64{0, 1}, consumer.commits())
}

func TestStart_FailedSyncIsRetriedBeforeCommit(t *testing.T) {
	consumer := &chanConsumer{msgs: make(chan kafka.Message, 2)}
	idx := &recordingIndex{failUpserts: 2}
	l := newListener(idx, consumer)
	l.backoff = time.Millisecond

	consumer.msgs <- kafka.Message{Offset: 7, Value: activePayload(t)}
	consumer.msgs <- kafka.Message{Offset: 8, Value: activePayload(t)}

	stop := runListener(t, l)
	assert.Eventually(t, func() bool {
		return len(consumer.commits()) == 2
	}, time.Second, 5*time.Millisecond)
	stop()

	up, _ := idx.counts()
	assert.Equal(t, 2, up)
	assert.Equal(t, []int64{7, 8}, consumer.commits())
}
