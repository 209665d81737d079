package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/fekuna/marketplace-listing-service/internal/model"
)

type fakeRepo struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[int64]model.Category
	listings map[int64]int
	findAll  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[int64]model.Category{}, listings: map[int64]int{}}
}

func (f *fakeRepo) Create(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	f.rows[c.ID] = *c
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeRepo) FindAll(_ context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findAll++
	out := make([]model.Category, 0, len(f.rows))
	for _, c := range f.rows {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[c.ID] = *c
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeRepo) SetLeaf(_ context.Context, id int64, isLeaf bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.rows[id]
	c.IsLeaf = isLeaf
	f.rows[id] = c
	return nil
}

func (f *fakeRepo) CountChildren(_ context.Context, id int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.rows {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) CountListings(_ context.Context, id int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listings[id], nil
}
