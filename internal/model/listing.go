package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingStatusDraft     ListingStatus = "DRAFT"
	ListingStatusWaiting   ListingStatus = "WAITING"
	ListingStatusActive    ListingStatus = "ACTIVE"
	ListingStatusRejected  ListingStatus = "REJECTED"
	ListingStatusExpired   ListingStatus = "EXPIRED"
	ListingStatusCompleted ListingStatus = "COMPLETED"
	ListingStatusSuspended ListingStatus = "SUSPENDED"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingStatusDraft, ListingStatusWaiting, ListingStatusActive, ListingStatusRejected,
		ListingStatusExpired, ListingStatusCompleted, ListingStatusSuspended:
		return true
	}
	return false
}

type Listing struct {
	BaseModel
	PublicID       string          `db:"public_id" json:"public_id"`
	CategoryID     int64           `db:"category_id" json:"category_id"`
	SellerID       string          `db:"seller_id" json:"seller_id"`
	Title          string          `db:"title" json:"title"`
	Description    *string         `db:"description" json:"description"`
	Price          decimal.Decimal `db:"price" json:"price"`
	Currency       string          `db:"currency" json:"currency"`
	Negotiable     bool            `db:"negotiable" json:"negotiable"`
	LocationCity   *string         `db:"location_city" json:"location_city"`
	LocationRegion *string         `db:"location_region" json:"location_region"`
	Latitude       *float64        `db:"latitude" json:"latitude"`
	Longitude      *float64        `db:"longitude" json:"longitude"`
	Status         ListingStatus   `db:"status" json:"status"`
	RejectReason   *string         `db:"reject_reason" json:"reject_reason"`
	PublishedAt    *time.Time      `db:"published_at" json:"published_at"`
	ExpiresAt      *time.Time      `db:"expires_at" json:"expires_at"`

	Attributes []ListingAttributeValue `db:"-" json:"attributes,omitempty"` // Loaded from EAV rows
}

func (l *Listing) OwnedBy(sellerID string) bool {
	return sellerID != "" && l.SellerID == sellerID
}

// ListingSummary is the search result projection.
type ListingSummary struct {
	PublicID     string          `db:"public_id" json:"public_id"`
	CategoryID   int64           `db:"category_id" json:"category_id"`
	SellerID     string          `db:"seller_id" json:"seller_id"`
	Title        string          `db:"title" json:"title"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Currency     string          `db:"currency" json:"currency"`
	Negotiable   bool            `db:"negotiable" json:"negotiable"`
	LocationCity *string         `db:"location_city" json:"location_city"`
	Status       ListingStatus   `db:"status" json:"status"`
	PublishedAt  *time.Time      `db:"published_at" json:"published_at"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

func (l *Listing) Summary() ListingSummary {
	return ListingSummary{
		PublicID:     l.PublicID,
		CategoryID:   l.CategoryID,
		SellerID:     l.SellerID,
		Title:        l.Title,
		Price:        l.Price,
		Currency:     l.Currency,
		Negotiable:   l.Negotiable,
		LocationCity: l.LocationCity,
		Status:       l.Status,
		PublishedAt:  l.PublishedAt,
		CreatedAt:    l.CreatedAt,
	}
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPage[T any](items []T, page, size, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return Page[T]{Items: items, Page: page, Size: size, Total: total, TotalPages: pages}
}
