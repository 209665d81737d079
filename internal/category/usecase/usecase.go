package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/apperror"
	"github.com/fekuna/marketplace-listing-service/internal/category"
	"github.com/fekuna/marketplace-listing-service/internal/category/dto"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/postgres"
	"go.uber.org/zap"
)

type categoryUseCase struct {
	repo   category.Repository
	tx     postgres.TxManager
	cache  category.TreeCache
	logger logger.ZapLogger
	now    func() time.Time
}

func NewCategoryUseCase(repo category.Repository, tx postgres.TxManager, cache category.TreeCache, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		tx:     tx,
		cache:  cache,
		logger: log,
		now:    time.Now,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("category name is required")
	}

	now := uc.now()
	cat := &model.Category{
		BaseModel: model.BaseModel{CreatedAt: now, UpdatedAt: now},
		ParentID:  input.ParentID,
		Name:      name,
		ImageURL:  input.ImageURL,
		SortOrder: input.SortOrder,
		IsLeaf:    true,
	}

	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		if input.ParentID != nil {
			parent, err := uc.attachableParent(ctx, *input.ParentID)
			if err != nil {
				return err
			}
			cat.Depth = parent.Depth + 1
			// First child flips the parent to non-leaf.
			if parent.IsLeaf {
				if err := uc.repo.SetLeaf(ctx, parent.ID, false); err != nil {
					return err
				}
			}
		}
		return uc.repo.Create(ctx, cat)
	})
	uc.cache.Invalidate(ctx)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("category created", zap.Int64("category_id", cat.ID), zap.Int("depth", cat.Depth))
	return cat, nil
}

// attachableParent loads a prospective parent. A leaf that already owns listings
// cannot gain children, otherwise those listings would sit on a non-leaf.
func (uc *categoryUseCase) attachableParent(ctx context.Context, parentID int64) (*model.Category, error) {
	parent, err := uc.repo.FindByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, apperror.CategoryNotFound(parentID)
	}
	if parent.IsLeaf {
		n, err := uc.repo.CountListings(ctx, parent.ID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, apperror.CategoryHasListings(parent.ID)
		}
	}
	return parent, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperror.CategoryNotFound(id)
	}
	return cat, nil
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	var cat *model.Category
	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		cat, err = uc.GetCategory(ctx, input.ID)
		if err != nil {
			return err
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return apperror.ValidationFailed("category name is required")
			}
			cat.Name = name
		}
		if input.ImageURL != nil {
			cat.ImageURL = input.ImageURL
		}
		if input.SortOrder != nil {
			cat.SortOrder = *input.SortOrder
		}

		oldParentID := cat.ParentID
		moved := false
		if input.MoveToRoot || input.ParentID != nil {
			target := input.ParentID
			if input.MoveToRoot {
				target = nil
			}
			if moved, err = uc.move(ctx, cat, target); err != nil {
				return err
			}
		}

		cat.UpdatedAt = uc.now()
		if err := uc.repo.Update(ctx, cat); err != nil {
			return err
		}

		// A non-leaf must keep at least one child.
		if moved && oldParentID != nil {
			return uc.refreshLeaf(ctx, *oldParentID)
		}
		return nil
	})
	uc.cache.Invalidate(ctx)
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// move re-parents cat (nil parent = root), flipping the new parent to non-leaf and
// shifting the depth of the whole moved subtree. It reports whether anything moved.
func (uc *categoryUseCase) move(ctx context.Context, cat *model.Category, newParentID *int64) (bool, error) {
	if sameParent(cat.ParentID, newParentID) {
		return false, nil
	}

	tree, err := uc.freshTree(ctx)
	if err != nil {
		return false, err
	}
	subtree, err := tree.DescendantIDs(cat.ID)
	if err != nil {
		return false, err
	}

	newDepth := 0
	if newParentID != nil {
		for _, id := range subtree {
			if id == *newParentID {
				return false, apperror.ValidationFailed("category cannot be moved under itself or its descendant")
			}
		}
		parent, err := uc.attachableParent(ctx, *newParentID)
		if err != nil {
			return false, err
		}
		if parent.IsLeaf {
			if err := uc.repo.SetLeaf(ctx, parent.ID, false); err != nil {
				return false, err
			}
		}
		newDepth = parent.Depth + 1
	}

	delta := newDepth - cat.Depth
	cat.ParentID = newParentID
	cat.Depth = newDepth

	if delta != 0 {
		for _, id := range subtree[1:] {
			node, _ := tree.Get(id)
			node.Depth += delta
			node.UpdatedAt = uc.now()
			if err := uc.repo.Update(ctx, &node); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

func (uc *categoryUseCase) refreshLeaf(ctx context.Context, parentID int64) error {
	n, err := uc.repo.CountChildren(ctx, parentID)
	if err != nil {
		return err
	}
	if n == 0 {
		return uc.repo.SetLeaf(ctx, parentID, true)
	}
	return nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id int64) error {
	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		cat, err := uc.GetCategory(ctx, id)
		if err != nil {
			return err
		}

		children, err := uc.repo.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return apperror.CategoryHasChildren(id)
		}

		listings, err := uc.repo.CountListings(ctx, id)
		if err != nil {
			return err
		}
		if listings > 0 {
			return apperror.CategoryHasListings(id)
		}

		if err := uc.repo.Delete(ctx, id); err != nil {
			return err
		}

		if cat.ParentID != nil {
			return uc.refreshLeaf(ctx, *cat.ParentID)
		}
		return nil
	})
	uc.cache.Invalidate(ctx)
	if err != nil {
		return err
	}

	uc.logger.Info("category deleted", zap.Int64("category_id", id))
	return nil
}

func (uc *categoryUseCase) GetTree(ctx context.Context) ([]model.Category, error) {
	tree, err := uc.tree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Nested(), nil
}

func (uc *categoryUseCase) PathToRoot(ctx context.Context, id int64) ([]model.Category, error) {
	tree, err := uc.tree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.PathToRoot(id)
}

func (uc *categoryUseCase) DescendantIDs(ctx context.Context, id int64) ([]int64, error) {
	tree, err := uc.tree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.DescendantIDs(id)
}

func (uc *categoryUseCase) IsLeaf(ctx context.Context, id int64) (bool, error) {
	cat, err := uc.GetCategory(ctx, id)
	if err != nil {
		return false, err
	}
	return cat.IsLeaf, nil
}

func (uc *categoryUseCase) RequireLeaf(ctx context.Context, id int64) error {
	leaf, err := uc.IsLeaf(ctx, id)
	if err != nil {
		return err
	}
	if !leaf {
		return apperror.CategoryNotLeaf(id)
	}
	return nil
}

func (uc *categoryUseCase) tree(ctx context.Context) (*category.Tree, error) {
	if tree, ok := uc.cache.Get(ctx); ok {
		return tree, nil
	}
	tree, err := uc.freshTree(ctx)
	if err != nil {
		return nil, err
	}
	uc.cache.Set(ctx, tree)
	return tree, nil
}

func (uc *categoryUseCase) freshTree(ctx context.Context) (*category.Tree, error) {
	categories, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return category.NewTree(categories), nil
}
