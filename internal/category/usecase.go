package category

import (
	"context"

	"github.com/fekuna/marketplace-listing-service/internal/category/dto"
	"github.com/fekuna/marketplace-listing-service/internal/model"
)

type UseCase interface {
	CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	GetTree(ctx context.Context) ([]model.Category, error)
	PathToRoot(ctx context.Context, id int64) ([]model.Category, error)
	DescendantIDs(ctx context.Context, id int64) ([]int64, error)

	// IsLeaf and RequireLeaf read the store directly, never the cached tree.
	IsLeaf(ctx context.Context, id int64) (bool, error)
	RequireLeaf(ctx context.Context, id int64) error
}
