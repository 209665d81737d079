package category

import (
	"context"

	"github.com/fekuna/marketplace-listing-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id int64) (*model.Category, error)
	FindAll(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id int64) error

	SetLeaf(ctx context.Context, id int64, isLeaf bool) error
	CountChildren(ctx context.Context, id int64) (int, error)
	CountListings(ctx context.Context, id int64) (int, error)
}

// TreeCache holds a single process-wide snapshot of the category tree. Every
// category write must call Invalidate; readers may see a stale tree for at most the TTL.
type TreeCache interface {
	Get(ctx context.Context) (*Tree, bool)
	Set(ctx context.Context, tree *Tree)
	Invalidate(ctx context.Context)
}
