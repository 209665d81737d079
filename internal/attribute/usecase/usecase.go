package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/apperror"
	"github.com/fekuna/marketplace-listing-service/internal/attribute"
	"github.com/fekuna/marketplace-listing-service/internal/attribute/dto"
	"github.com/fekuna/marketplace-listing-service/internal/category"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/postgres"
	"go.uber.org/zap"
)

type attributeUseCase struct {
	repo       attribute.Repository
	categories category.UseCase
	tx         postgres.TxManager
	logger     logger.ZapLogger
	now        func() time.Time
}

func NewAttributeUseCase(repo attribute.Repository, categories category.UseCase, tx postgres.TxManager, log logger.ZapLogger) attribute.UseCase {
	return &attributeUseCase{
		repo:       repo,
		categories: categories,
		tx:         tx,
		logger:     log,
		now:        time.Now,
	}
}

func (uc *attributeUseCase) CreateAttribute(ctx context.Context, input *dto.CreateAttributeInput) (*attribute.SchemaEntry, error) {
	key := model.NormalizeAttributeKey(input.Key)
	if key == "" {
		return nil, apperror.ValidationFailed("attribute key is required")
	}
	typ, ok := model.ParseAttributeType(input.Type)
	if !ok {
		return nil, apperror.ValidationFailed("unsupported attribute type " + input.Type)
	}
	if typ != model.AttributeTypeEnum && len(input.Options) > 0 {
		return nil, apperror.ValidationFailed("options are only allowed on ENUM attributes")
	}
	label := strings.TrimSpace(input.Label)
	if label == "" {
		label = key
	}

	now := uc.now()
	entry := &attribute.SchemaEntry{
		Definition: model.AttributeDefinition{
			CategoryID: input.CategoryID,
			Key:        key,
			Label:      label,
			Type:       typ,
			Unit:       input.Unit,
			Required:   input.Required,
			SortOrder:  input.SortOrder,
			Active:     true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		Options: []model.AttributeOption{},
	}

	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := uc.categories.GetCategory(ctx, input.CategoryID); err != nil {
			return err
		}
		existing, err := uc.repo.FindDefinitionByKey(ctx, input.CategoryID, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.DuplicateAttributeKey(key)
		}
		if err := uc.repo.CreateDefinition(ctx, &entry.Definition); err != nil {
			return err
		}

		seen := map[string]bool{}
		for i, raw := range input.Options {
			opt := model.AttributeOption{
				AttributeDefinitionID: entry.Definition.ID,
				Value:                 model.NormalizeOptionValue(raw),
				Label:                 strings.TrimSpace(raw),
				SortOrder:             i,
			}
			if opt.Value == "" || seen[opt.Value] {
				return apperror.ValidationFailed("duplicate or empty option " + raw)
			}
			seen[opt.Value] = true
			if err := uc.repo.CreateOption(ctx, &opt); err != nil {
				return err
			}
			entry.Options = append(entry.Options, opt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("attribute created",
		zap.Int64("attribute_id", entry.Definition.ID),
		zap.Int64("category_id", input.CategoryID),
		zap.String("key", key),
	)
	return entry, nil
}

func (uc *attributeUseCase) UpdateAttribute(ctx context.Context, input *dto.UpdateAttributeInput) (*attribute.SchemaEntry, error) {
	var entry *attribute.SchemaEntry
	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		def, err := uc.definition(ctx, input.ID)
		if err != nil {
			return err
		}

		if input.Label != nil {
			def.Label = strings.TrimSpace(*input.Label)
		}
		if input.Unit != nil {
			def.Unit = input.Unit
		}
		if input.Required != nil {
			def.Required = *input.Required
		}
		if input.SortOrder != nil {
			def.SortOrder = *input.SortOrder
		}
		if input.Active != nil {
			def.Active = *input.Active
		}
		def.UpdatedAt = uc.now()

		if err := uc.repo.UpdateDefinition(ctx, def); err != nil {
			return err
		}
		opts, err := uc.repo.FindOptionsByDefinitionIDs(ctx, []int64{def.ID})
		if err != nil {
			return err
		}
		if opts == nil {
			opts = []model.AttributeOption{}
		}
		entry = &attribute.SchemaEntry{Definition: *def, Options: opts}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (uc *attributeUseCase) AddOption(ctx context.Context, input *dto.AddOptionInput) (*model.AttributeOption, error) {
	raw := input.Value
	if strings.TrimSpace(raw) == "" {
		raw = input.Label
	}
	value := model.NormalizeOptionValue(raw)
	if value == "" {
		return nil, apperror.ValidationFailed("option value is required")
	}

	var opt *model.AttributeOption
	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		def, err := uc.definition(ctx, input.AttributeID)
		if err != nil {
			return err
		}
		if def.Type != model.AttributeTypeEnum {
			return apperror.ValidationFailed("options are only allowed on ENUM attributes")
		}

		existing, err := uc.repo.FindOptionsByDefinitionIDs(ctx, []int64{def.ID})
		if err != nil {
			return err
		}
		nextSort := 0
		for _, o := range existing {
			if o.Value == value {
				return apperror.ValidationFailed("option " + value + " already exists")
			}
			if o.SortOrder >= nextSort {
				nextSort = o.SortOrder + 1
			}
		}

		label := strings.TrimSpace(input.Label)
		if label == "" {
			label = strings.TrimSpace(raw)
		}
		opt = &model.AttributeOption{
			AttributeDefinitionID: def.ID,
			Value:                 value,
			Label:                 label,
			SortOrder:             nextSort,
		}
		if input.SortOrder != nil {
			opt.SortOrder = *input.SortOrder
		}
		return uc.repo.CreateOption(ctx, opt)
	})
	if err != nil {
		return nil, err
	}
	return opt, nil
}

func (uc *attributeUseCase) definition(ctx context.Context, id int64) (*model.AttributeDefinition, error) {
	def, err := uc.repo.FindDefinitionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apperror.AttributeNotFound(id)
	}
	return def, nil
}

func (uc *attributeUseCase) ResolveEffectiveSchema(ctx context.Context, categoryID int64) (*attribute.Schema, error) {
	path, err := uc.categories.PathToRoot(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(path))
	for _, c := range path {
		ids = append(ids, c.ID)
	}
	defs, err := uc.repo.FindActiveByCategoryIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	defIDs := make([]int64, 0, len(defs))
	for _, d := range defs {
		if d.Type == model.AttributeTypeEnum {
			defIDs = append(defIDs, d.ID)
		}
	}
	opts, err := uc.repo.FindOptionsByDefinitionIDs(ctx, defIDs)
	if err != nil {
		return nil, err
	}

	return attribute.Resolve(path, defs, opts), nil
}

func (uc *attributeUseCase) ValidateAndBuildAttributes(ctx context.Context, categoryID int64, raw []attribute.RawAttribute) ([]model.ListingAttributeValue, error) {
	schema, err := uc.ResolveEffectiveSchema(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return attribute.BuildAttributeValues(schema, raw)
}
