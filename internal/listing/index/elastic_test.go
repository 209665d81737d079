package index

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockIndexer struct {
	mock.Mock
}

func (m *mockIndexer) CreateIndex(ctx context.Context, index, mapping string) error {
	return m.Called(ctx, index, mapping).Error(0)
}

func (m *mockIndexer) Index(ctx context.Context, index, id string, doc interface{}) error {
	return m.Called(ctx, index, id, doc).Error(0)
}

func (m *mockIndexer) Delete(ctx context.Context, index, id string) error {
	return m.Called(ctx, index, id).Error(0)
}

func TestNewDocument_FlattensTypedAttributes(t *testing.T) {
	lat, lon := 52.23, 21.01
	l := &model.Listing{
		PublicID:   "abc",
		CategoryID: 7,
		Title:      "Golf",
		Price:      decimal.RequireFromString("15000.50"),
		Currency:   "PLN",
		Latitude:   &lat,
		Longitude:  &lon,
		Attributes: []model.ListingAttributeValue{
			{Key: "mileage", Value: model.NumberValue(decimal.NewFromInt(125000))},
			{Key: "fuel", Value: model.OptionValue(21), OptionValue: "diesel"},
			{Key: "damaged", Value: model.BoolValue(false)},
			{Key: "colour", Value: model.NullValue(model.AttributeTypeEnum)},
		},
	}

	doc := NewDocument(l)
	assert.Equal(t, 15000.5, doc.Price)
	require.NotNil(t, doc.Location)
	assert.Equal(t, lat, doc.Location.Lat)
	require.Len(t, doc.Attributes, 3)
	assert.Equal(t, 125000.0, *doc.Attributes[0].Number)
	assert.Equal(t, "diesel", *doc.Attributes[1].Option)
	assert.False(t, *doc.Attributes[2].Boolean)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "colour")
}

func TestElasticIndex_UpsertAndRemove(t *testing.T) {
	m := &mockIndexer{}
	idx := NewElasticIndex(m, "")
	l := &model.Listing{PublicID: "abc", Title: "Golf"}

	m.On("Index", mock.Anything, DefaultName, "abc", mock.AnythingOfType("index.Document")).Return(nil)
	m.On("Delete", mock.Anything, DefaultName, "abc").Return(nil)
	m.On("CreateIndex", mock.Anything, DefaultName, mock.MatchedBy(func(s string) bool {
		return json.Valid([]byte(s))
	})).Return(nil)

	require.NoError(t, idx.EnsureIndex(context.Background()))
	require.NoError(t, idx.Upsert(context.Background(), l))
	require.NoError(t, idx.Remove(context.Background(), "abc"))
	m.AssertExpectations(t)
}
