package dto

import (
	"github.com/fekuna/marketplace-listing-service/internal/attribute"
	"github.com/fekuna/marketplace-listing-service/internal/listing/filter"
	"github.com/shopspring/decimal"
)

type CreateListingInput struct {
	CategoryID     int64
	Title          string
	Description    *string
	Price          decimal.Decimal
	Currency       string
	Negotiable     bool
	LocationCity   *string
	LocationRegion *string
	Latitude       *float64
	Longitude      *float64
	Attributes     []attribute.RawAttribute
}

// UpdateListingInput is a patch: nil fields are left as they are. A nil Attributes
// keeps the stored values; a non-nil one (even empty) replaces all of them.
type UpdateListingInput struct {
	PublicID       string
	CategoryID     *int64
	Title          *string
	Description    *string
	Price          *decimal.Decimal
	Currency       *string
	Negotiable     *bool
	LocationCity   *string
	LocationRegion *string
	Latitude       *float64
	Longitude      *float64
	Attributes     []attribute.RawAttribute
}

type SearchInput struct {
	Filters    []filter.AttributeFilter
	CategoryID *int64
	SellerID   string
	Query      string
	Sort       []filter.SortSpec
	Page       int
	Size       int
}
