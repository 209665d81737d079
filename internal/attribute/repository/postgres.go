package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

const definitionColumns = `id, category_id, key, label, type, unit, required, sort_order, active, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateDefinition(ctx context.Context, def *model.AttributeDefinition) error {
	query := `
        INSERT INTO attribute_definitions (category_id, key, label, type, unit, required, sort_order, active, created_at, updated_at)
        VALUES (:category_id, :key, :label, :type, :unit, :required, :sort_order, :active, :created_at, :updated_at)
        RETURNING id
    `
	db := postgres.Conn(ctx, r.DB)
	query, args, err := db.BindNamed(query, def)
	if err != nil {
		return err
	}
	return db.QueryRowxContext(ctx, query, args...).Scan(&def.ID)
}

func (r *PGRepository) UpdateDefinition(ctx context.Context, def *model.AttributeDefinition) error {
	query := `
        UPDATE attribute_definitions
        SET label = :label,
            unit = :unit,
            required = :required,
            sort_order = :sort_order,
            active = :active,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := postgres.Conn(ctx, r.DB).NamedExecContext(ctx, query, def)
	return err
}

func (r *PGRepository) FindDefinitionByID(ctx context.Context, id int64) (*model.AttributeDefinition, error) {
	var def model.AttributeDefinition
	query := `SELECT ` + definitionColumns + ` FROM attribute_definitions WHERE id = $1 LIMIT 1`
	if err := postgres.Conn(ctx, r.DB).GetContext(ctx, &def, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &def, nil
}

func (r *PGRepository) FindDefinitionByKey(ctx context.Context, categoryID int64, key string) (*model.AttributeDefinition, error) {
	var def model.AttributeDefinition
	query := `SELECT ` + definitionColumns + ` FROM attribute_definitions
	          WHERE category_id = $1 AND lower(key) = lower($2) LIMIT 1`
	if err := postgres.Conn(ctx, r.DB).GetContext(ctx, &def, query, categoryID, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &def, nil
}

func (r *PGRepository) FindActiveByCategoryIDs(ctx context.Context, categoryIDs []int64) ([]model.AttributeDefinition, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
        SELECT `+definitionColumns+` FROM attribute_definitions
        WHERE active = TRUE AND category_id IN (?)
        ORDER BY sort_order ASC, id ASC
    `, categoryIDs)
	if err != nil {
		return nil, err
	}

	db := postgres.Conn(ctx, r.DB)
	var defs []model.AttributeDefinition
	if err := db.SelectContext(ctx, &defs, db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *PGRepository) CreateOption(ctx context.Context, opt *model.AttributeOption) error {
	query := `
        INSERT INTO attribute_options (attribute_definition_id, value, label, sort_order)
        VALUES (:attribute_definition_id, :value, :label, :sort_order)
        RETURNING id
    `
	db := postgres.Conn(ctx, r.DB)
	query, args, err := db.BindNamed(query, opt)
	if err != nil {
		return err
	}
	return db.QueryRowxContext(ctx, query, args...).Scan(&opt.ID)
}

func (r *PGRepository) FindOptionsByDefinitionIDs(ctx context.Context, definitionIDs []int64) ([]model.AttributeOption, error) {
	if len(definitionIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
        SELECT id, attribute_definition_id, value, label, sort_order FROM attribute_options
        WHERE attribute_definition_id IN (?)
        ORDER BY sort_order ASC, id ASC
    `, definitionIDs)
	if err != nil {
		return nil, err
	}

	db := postgres.Conn(ctx, r.DB)
	var opts []model.AttributeOption
	if err := db.SelectContext(ctx, &opts, db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return opts, nil
}
