// Package index keeps the Elasticsearch projection of ACTIVE listings.
package index

import (
	"context"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/model"
)

const DefaultName = "listings"

const mapping = `{
  "mappings": {
    "properties": {
      "public_id":   {"type": "keyword"},
      "category_id": {"type": "long"},
      "seller_id":   {"type": "keyword"},
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "price":       {"type": "scaled_float", "scaling_factor": 100},
      "currency":    {"type": "keyword"},
      "negotiable":  {"type": "boolean"},
      "city":        {"type": "keyword"},
      "region":      {"type": "keyword"},
      "location":    {"type": "geo_point"},
      "published_at":{"type": "date"},
      "expires_at":  {"type": "date"},
      "attributes": {
        "type": "nested",
        "properties": {
          "key":     {"type": "keyword"},
          "text":    {"type": "keyword"},
          "number":  {"type": "double"},
          "boolean": {"type": "boolean"},
          "option":  {"type": "keyword"}
        }
      }
    }
  }
}`

// Indexer is the document store, satisfied by *search.Client.
type Indexer interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
	Delete(ctx context.Context, index, id string) error
}

type ElasticIndex struct {
	client Indexer
	name   string
}

func NewElasticIndex(client Indexer, name string) *ElasticIndex {
	if name == "" {
		name = DefaultName
	}
	return &ElasticIndex{client: client, name: name}
}

// EnsureIndex creates the index with its mapping if it is missing.
func (i *ElasticIndex) EnsureIndex(ctx context.Context) error {
	return i.client.CreateIndex(ctx, i.name, mapping)
}

func (i *ElasticIndex) Upsert(ctx context.Context, l *model.Listing) error {
	return i.client.Index(ctx, i.name, l.PublicID, NewDocument(l))
}

func (i *ElasticIndex) Remove(ctx context.Context, publicID string) error {
	return i.client.Delete(ctx, i.name, publicID)
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type AttributeDoc struct {
	Key     string   `json:"key"`
	Text    *string  `json:"text,omitempty"`
	Number  *float64 `json:"number,omitempty"`
	Boolean *bool    `json:"boolean,omitempty"`
	Option  *string  `json:"option,omitempty"`
}

type Document struct {
	PublicID    string         `json:"public_id"`
	CategoryID  int64          `json:"category_id"`
	SellerID    string         `json:"seller_id"`
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	Price       float64        `json:"price"`
	Currency    string         `json:"currency"`
	Negotiable  bool           `json:"negotiable"`
	City        *string        `json:"city,omitempty"`
	Region      *string        `json:"region,omitempty"`
	Location    *GeoPoint      `json:"location,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	Attributes  []AttributeDoc `json:"attributes"`
}

func NewDocument(l *model.Listing) Document {
	doc := Document{
		PublicID:    l.PublicID,
		CategoryID:  l.CategoryID,
		SellerID:    l.SellerID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price.InexactFloat64(),
		Currency:    l.Currency,
		Negotiable:  l.Negotiable,
		City:        l.LocationCity,
		Region:      l.LocationRegion,
		PublishedAt: l.PublishedAt,
		ExpiresAt:   l.ExpiresAt,
		Attributes:  make([]AttributeDoc, 0, len(l.Attributes)),
	}
	if l.Latitude != nil && l.Longitude != nil {
		doc.Location = &GeoPoint{Lat: *l.Latitude, Lon: *l.Longitude}
	}

	for _, a := range l.Attributes {
		if a.Value.IsNull() {
			continue
		}
		ad := AttributeDoc{Key: a.Key}
		switch a.Type() {
		case model.AttributeTypeString:
			s, _ := a.Value.Text()
			ad.Text = &s
		case model.AttributeTypeNumber:
			d, _ := a.Value.Number()
			f := d.InexactFloat64()
			ad.Number = &f
		case model.AttributeTypeBoolean:
			b, _ := a.Value.Bool()
			ad.Boolean = &b
		case model.AttributeTypeEnum:
			v := a.OptionValue
			ad.Option = &v
		}
		doc.Attributes = append(doc.Attributes, ad)
	}
	return doc
}
