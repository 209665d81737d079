package attribute

import (
	"context"

	"github.com/fekuna/marketplace-listing-service/internal/attribute/dto"
	"github.com/fekuna/marketplace-listing-service/internal/model"
)

type UseCase interface {
	CreateAttribute(ctx context.Context, input *dto.CreateAttributeInput) (*SchemaEntry, error)
	UpdateAttribute(ctx context.Context, input *dto.UpdateAttributeInput) (*SchemaEntry, error)
	AddOption(ctx context.Context, input *dto.AddOptionInput) (*model.AttributeOption, error)

	ResolveEffectiveSchema(ctx context.Context, categoryID int64) (*Schema, error)
	ValidateAndBuildAttributes(ctx context.Context, categoryID int64, raw []RawAttribute) ([]model.ListingAttributeValue, error)
}
