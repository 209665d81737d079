package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/apperror"
	"github.com/fekuna/marketplace-listing-service/internal/attribute"
	attrdto "github.com/fekuna/marketplace-listing-service/internal/attribute/dto"
	catdto "github.com/fekuna/marketplace-listing-service/internal/category/dto"
	"github.com/fekuna/marketplace-listing-service/internal/listing/filter"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/stretchr/testify/mock"
)

type memAttrs struct {
	mu   sync.Mutex
	rows map[int64][]model.ListingAttributeValue
}

func newMemAttrs() *memAttrs {
	return &memAttrs{rows: map[int64][]model.ListingAttributeValue{}}
}

func (m *memAttrs) Replace(_ context.Context, listingID int64, values []model.ListingAttributeValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(values) == 0 {
		delete(m.rows, listingID)
		return nil
	}
	m.rows[listingID] = append([]model.ListingAttributeValue(nil), values...)
	return nil
}

func (m *memAttrs) LoadForListing(_ context.Context, listingID int64) ([]model.ListingAttributeValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ListingAttributeValue(nil), m.rows[listingID]...), nil
}

type memRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]model.Listing
	attrs  *memAttrs
}

func newMemRepo(attrs *memAttrs) *memRepo {
	return &memRepo{rows: map[string]model.Listing{}, attrs: attrs}
}

func (r *memRepo) Create(_ context.Context, l *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	l.ID = r.nextID
	stored := *l
	stored.Attributes = nil
	r.rows[l.PublicID] = stored
	return nil
}

func (r *memRepo) Update(_ context.Context, l *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *l
	stored.Attributes = nil
	r.rows[l.PublicID] = stored
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, l := range r.rows {
		if l.ID == id {
			delete(r.rows, k)
		}
	}
	return nil
}

func (r *memRepo) FindByPublicID(_ context.Context, publicID string) (*model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[publicID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *memRepo) FindByPublicIDForUpdate(ctx context.Context, publicID string) (*model.Listing, error) {
	return r.FindByPublicID(ctx, publicID)
}

func (r *memRepo) Search(ctx context.Context, where filter.Predicate, order filter.Order, limit, offset int) ([]model.ListingSummary, int, error) {
	r.mu.Lock()
	var matched []model.Listing
	for _, l := range r.rows {
		l.Attributes, _ = r.attrs.LoadForListing(ctx, l.ID)
		if where.Match(&l) {
			matched = append(matched, l)
		}
	}
	r.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return order.Less(&matched[i], &matched[j]) })
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]model.ListingSummary, 0, end-offset)
	for i := offset; i < end; i++ {
		out = append(out, matched[i].Summary())
	}
	return out, total, nil
}

func (r *memRepo) ExpireOverdue(_ context.Context, now time.Time, limit int) ([]model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Listing
	for k, l := range r.rows {
		if len(out) == limit {
			break
		}
		if l.Status != model.ListingStatusActive || l.ExpiresAt == nil || !l.ExpiresAt.Before(now) {
			continue
		}
		l.Status = model.ListingStatusExpired
		l.UpdatedAt = now
		r.rows[k] = l
		out = append(out, l)
	}
	return out, nil
}

func (r *memRepo) status(publicID string) model.ListingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[publicID].Status
}

// fakeCategories knows a fixed tree: 1 (vehicles) -> 2 (cars), 3 (trucks).
type fakeCategories struct {
	children map[int64][]int64
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{children: map[int64][]int64{1: {2, 3}, 2: nil, 3: nil}}
}

func (f *fakeCategories) CreateCategory(context.Context, *catdto.CreateCategoryInput) (*model.Category, error) {
	return nil, nil
}

func (f *fakeCategories) GetCategory(_ context.Context, id int64) (*model.Category, error) {
	if _, ok := f.children[id]; !ok {
		return nil, apperror.CategoryNotFound(id)
	}
	return &model.Category{BaseModel: model.BaseModel{ID: id}, IsLeaf: len(f.children[id]) == 0}, nil
}

func (f *fakeCategories) UpdateCategory(context.Context, *catdto.UpdateCategoryInput) (*model.Category, error) {
	return nil, nil
}

func (f *fakeCategories) DeleteCategory(context.Context, int64) error { return nil }

func (f *fakeCategories) GetTree(context.Context) ([]model.Category, error) { return nil, nil }

func (f *fakeCategories) PathToRoot(context.Context, int64) ([]model.Category, error) {
	return nil, nil
}

func (f *fakeCategories) DescendantIDs(_ context.Context, id int64) ([]int64, error) {
	if _, ok := f.children[id]; !ok {
		return nil, apperror.CategoryNotFound(id)
	}
	return append([]int64{id}, f.children[id]...), nil
}

func (f *fakeCategories) IsLeaf(ctx context.Context, id int64) (bool, error) {
	c, err := f.GetCategory(ctx, id)
	if err != nil {
		return false, err
	}
	return c.IsLeaf, nil
}

func (f *fakeCategories) RequireLeaf(ctx context.Context, id int64) error {
	leaf, err := f.IsLeaf(ctx, id)
	if err != nil {
		return err
	}
	if !leaf {
		return apperror.CategoryNotLeaf(id)
	}
	return nil
}

// fakeSchema validates with a fixed schema per category.
type fakeSchema struct {
	schemas map[int64]*attribute.Schema
}

func newFakeSchema() *fakeSchema {
	cars := attribute.NewSchema()
	cars.Put(attribute.SchemaEntry{Definition: model.AttributeDefinition{ID: 1, Key: "mileage", Type: model.AttributeTypeNumber, Required: true}})
	cars.Put(attribute.SchemaEntry{
		Definition: model.AttributeDefinition{ID: 2, Key: "fuel", Type: model.AttributeTypeEnum, SortOrder: 1},
		Options: []model.AttributeOption{
			{ID: 21, AttributeDefinitionID: 2, Value: "diesel", Label: "Diesel"},
			{ID: 22, AttributeDefinitionID: 2, Value: "petrol", Label: "Petrol"},
		},
	})
	trucks := attribute.NewSchema()
	trucks.Put(attribute.SchemaEntry{Definition: model.AttributeDefinition{ID: 5, Key: "axles", Type: model.AttributeTypeNumber}})
	return &fakeSchema{schemas: map[int64]*attribute.Schema{2: cars, 3: trucks}}
}

func (f *fakeSchema) CreateAttribute(context.Context, *attrdto.CreateAttributeInput) (*attribute.SchemaEntry, error) {
	return nil, nil
}

func (f *fakeSchema) UpdateAttribute(context.Context, *attrdto.UpdateAttributeInput) (*attribute.SchemaEntry, error) {
	return nil, nil
}

func (f *fakeSchema) AddOption(context.Context, *attrdto.AddOptionInput) (*model.AttributeOption, error) {
	return nil, nil
}

func (f *fakeSchema) ResolveEffectiveSchema(_ context.Context, categoryID int64) (*attribute.Schema, error) {
	if s, ok := f.schemas[categoryID]; ok {
		return s, nil
	}
	return attribute.NewSchema(), nil
}

func (f *fakeSchema) ValidateAndBuildAttributes(ctx context.Context, categoryID int64, raw []attribute.RawAttribute) ([]model.ListingAttributeValue, error) {
	s, _ := f.ResolveEffectiveSchema(ctx, categoryID)
	return attribute.BuildAttributeValues(s, raw)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e model.LifecycleEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockPublisher) events(t model.LifecycleEventType) []model.LifecycleEvent {
	var out []model.LifecycleEvent
	for _, c := range m.Calls {
		if c.Method != "Publish" {
			continue
		}
		if e := c.Arguments.Get(1).(model.LifecycleEvent); e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}
