package listener

import (
	"context"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/listing"
	"github.com/fekuna/marketplace-listing-service/internal/listing/event"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Consumer interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// IndexListener projects lifecycle events onto the search index. Events only say
// that something changed; the current row decides what the index holds, so
// replays and reordering converge.
type IndexListener struct {
	consumer Consumer
	repo     listing.Repository
	attrs    listing.AttributeStore
	index    listing.SearchIndex
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewIndexListener(consumer Consumer, repo listing.Repository, attrs listing.AttributeStore, index listing.SearchIndex, logger logger.ZapLogger) *IndexListener {
	return &IndexListener{
		consumer: consumer,
		repo:     repo,
		attrs:    attrs,
		index:    index,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *IndexListener) Start(ctx context.Context) {
	l.logger.Info("Starting listing index listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping listing index listener")
			return
		default:
			msg, err := l.consumer.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(l.backoff)
				continue
			}
			// Offsets commit cumulatively, so a failed sync is retried in place
			// before anything later can be committed past it.
			for !l.processMessage(ctx, msg.Value) {
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
			}
			if err := l.consumer.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				l.logger.Error("Failed to commit kafka offset", zap.Int64("offset", msg.Offset), zap.Error(err))
			}
		}
	}
}

// processMessage reports whether the message is done with. Undecodable payloads
// are skipped since retrying cannot fix them.
func (l *IndexListener) processMessage(ctx context.Context, value []byte) bool {
	e, err := event.Decode(value)
	if err != nil {
		l.logger.Error("Failed to unmarshal lifecycle event", zap.Error(err))
		return true
	}
	if err := l.Sync(ctx, e); err != nil {
		l.logger.Error("Failed to sync listing index",
			zap.String("listing_id", e.ListingID),
			zap.String("event_type", string(e.EventType)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Sync brings the index entry for e.ListingID in line with the database.
func (l *IndexListener) Sync(ctx context.Context, e model.LifecycleEvent) error {
	if e.EventType == model.EventListingFinished && e.Reason == model.FinishReasonDeleted {
		return l.index.Remove(ctx, e.ListingID)
	}

	current, err := l.repo.FindByPublicID(ctx, e.ListingID)
	if err != nil {
		return err
	}
	if current == nil || current.Status != model.ListingStatusActive {
		return l.index.Remove(ctx, e.ListingID)
	}

	if current.Attributes, err = l.attrs.LoadForListing(ctx, current.ID); err != nil {
		return err
	}
	return l.index.Upsert(ctx, current)
}
