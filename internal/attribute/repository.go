package attribute

import (
	"context"

	"github.com/fekuna/marketplace-listing-service/internal/model"
)

type Repository interface {
	CreateDefinition(ctx context.Context, def *model.AttributeDefinition) error
	UpdateDefinition(ctx context.Context, def *model.AttributeDefinition) error
	FindDefinitionByID(ctx context.Context, id int64) (*model.AttributeDefinition, error)
	FindDefinitionByKey(ctx context.Context, categoryID int64, key string) (*model.AttributeDefinition, error)
	// FindActiveByCategoryIDs returns active definitions ordered by (sort_order, id).
	FindActiveByCategoryIDs(ctx context.Context, categoryIDs []int64) ([]model.AttributeDefinition, error)

	CreateOption(ctx context.Context, opt *model.AttributeOption) error
	FindOptionsByDefinitionIDs(ctx context.Context, definitionIDs []int64) ([]model.AttributeOption, error)
}
