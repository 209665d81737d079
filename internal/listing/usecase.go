package listing

import (
	"context"

	"github.com/fekuna/marketplace-listing-service/internal/listing/dto"
	"github.com/fekuna/marketplace-listing-service/internal/model"
)

type UseCase interface {
	Create(ctx context.Context, sellerID string, input *dto.CreateListingInput) (*model.Listing, error)
	Update(ctx context.Context, callerID string, input *dto.UpdateListingInput) (*model.Listing, error)
	Delete(ctx context.Context, callerID, publicID string) error

	Get(ctx context.Context, publicID string) (*model.Listing, error)
	GetForEdit(ctx context.Context, callerID, publicID string) (*model.Listing, error)
	ListForUser(ctx context.Context, sellerID string, status *model.ListingStatus, page, size int) (model.Page[model.ListingSummary], error)
	Search(ctx context.Context, input *dto.SearchInput) (model.Page[model.ListingSummary], error)

	SubmitForApproval(ctx context.Context, callerID, publicID string) (*model.Listing, error)
	Approve(ctx context.Context, publicID string) (*model.Listing, error)
	Reject(ctx context.Context, publicID, reason string) (*model.Listing, error)
	Finish(ctx context.Context, callerID, publicID string) (*model.Listing, error)
	ListWaiting(ctx context.Context, page, size int) (model.Page[model.ListingSummary], error)
	GetWaiting(ctx context.Context, publicID string) (*model.Listing, error)

	// ExpireOverdue is run by the scheduler only and returns how many listings expired.
	ExpireOverdue(ctx context.Context) (int, error)
}
