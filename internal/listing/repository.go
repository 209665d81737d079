package listing

import (
	"context"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/listing/filter"
	"github.com/fekuna/marketplace-listing-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, listing *model.Listing) error
	Update(ctx context.Context, listing *model.Listing) error
	Delete(ctx context.Context, id int64) error
	FindByPublicID(ctx context.Context, publicID string) (*model.Listing, error)
	// FindByPublicIDForUpdate locks the row until the surrounding transaction ends.
	FindByPublicIDForUpdate(ctx context.Context, publicID string) (*model.Listing, error)
	Search(ctx context.Context, where filter.Predicate, order filter.Order, limit, offset int) ([]model.ListingSummary, int, error)
	// ExpireOverdue flips at most limit ACTIVE listings with expires_at < now to EXPIRED
	// and returns them as they are after the update.
	ExpireOverdue(ctx context.Context, now time.Time, limit int) ([]model.Listing, error)
}

// AttributeStore is the EAV table. Replace deletes every row of the listing and
// inserts values; it must run in the transaction of the owning listing write.
type AttributeStore interface {
	Replace(ctx context.Context, listingID int64, values []model.ListingAttributeValue) error
	LoadForListing(ctx context.Context, listingID int64) ([]model.ListingAttributeValue, error)
}

// EventPublisher is fire-and-forget from the use case point of view.
type EventPublisher interface {
	Publish(ctx context.Context, event model.LifecycleEvent) error
}

// SearchIndex is the read-side projection of ACTIVE listings.
type SearchIndex interface {
	Upsert(ctx context.Context, listing *model.Listing) error
	Remove(ctx context.Context, publicID string) error
}
