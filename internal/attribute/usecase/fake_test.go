package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/fekuna/marketplace-listing-service/internal/apperror"
	"github.com/fekuna/marketplace-listing-service/internal/category"
	"github.com/fekuna/marketplace-listing-service/internal/model"
)

type fakeRepo struct {
	nextID  int64
	defs    map[int64]model.AttributeDefinition
	options []model.AttributeOption
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{defs: map[int64]model.AttributeDefinition{}}
}

func (f *fakeRepo) CreateDefinition(_ context.Context, def *model.AttributeDefinition) error {
	f.nextID++
	def.ID = f.nextID
	f.defs[def.ID] = *def
	return nil
}

func (f *fakeRepo) UpdateDefinition(_ context.Context, def *model.AttributeDefinition) error {
	f.defs[def.ID] = *def
	return nil
}

func (f *fakeRepo) FindDefinitionByID(_ context.Context, id int64) (*model.AttributeDefinition, error) {
	d, ok := f.defs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (f *fakeRepo) FindDefinitionByKey(_ context.Context, categoryID int64, key string) (*model.AttributeDefinition, error) {
	for _, d := range f.defs {
		if d.CategoryID == categoryID && strings.EqualFold(d.Key, key) {
			return &d, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) FindActiveByCategoryIDs(_ context.Context, categoryIDs []int64) ([]model.AttributeDefinition, error) {
	want := map[int64]bool{}
	for _, id := range categoryIDs {
		want[id] = true
	}
	var out []model.AttributeDefinition
	for _, d := range f.defs {
		if d.Active && want[d.CategoryID] {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) CreateOption(_ context.Context, opt *model.AttributeOption) error {
	f.nextID++
	opt.ID = f.nextID
	f.options = append(f.options, *opt)
	return nil
}

func (f *fakeRepo) FindOptionsByDefinitionIDs(_ context.Context, ids []int64) ([]model.AttributeOption, error) {
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []model.AttributeOption
	for _, o := range f.options {
		if want[o.AttributeDefinitionID] {
			out = append(out, o)
		}
	}
	return out, nil
}

// stubCategories serves a fixed tree.
type stubCategories struct {
	category.UseCase
	tree *category.Tree
}

func newStubCategories(cats ...model.Category) *stubCategories {
	return &stubCategories{tree: category.NewTree(cats)}
}

func (s *stubCategories) GetCategory(_ context.Context, id int64) (*model.Category, error) {
	c, ok := s.tree.Get(id)
	if !ok {
		return nil, apperror.CategoryNotFound(id)
	}
	return &c, nil
}

func (s *stubCategories) PathToRoot(_ context.Context, id int64) ([]model.Category, error) {
	return s.tree.PathToRoot(id)
}
