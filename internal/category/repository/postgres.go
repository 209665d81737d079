package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, c *model.Category) error {
	query := `
        INSERT INTO categories (parent_id, name, image_url, depth, sort_order, is_leaf, created_at, updated_at)
        VALUES (:parent_id, :name, :image_url, :depth, :sort_order, :is_leaf, :created_at, :updated_at)
        RETURNING id
    `
	db := postgres.Conn(ctx, r.DB)
	query, args, err := db.BindNamed(query, c)
	if err != nil {
		return err
	}
	return db.QueryRowxContext(ctx, query, args...).Scan(&c.ID)
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category
	query := `SELECT id, parent_id, name, image_url, depth, sort_order, is_leaf, created_at, updated_at
	          FROM categories WHERE id = $1 LIMIT 1`
	err := postgres.Conn(ctx, r.DB).GetContext(ctx, &category, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *PGRepository) FindAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	query := `SELECT id, parent_id, name, image_url, depth, sort_order, is_leaf, created_at, updated_at
	          FROM categories ORDER BY depth ASC, sort_order ASC, name ASC`
	if err := postgres.Conn(ctx, r.DB).SelectContext(ctx, &categories, query); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *PGRepository) Update(ctx context.Context, c *model.Category) error {
	query := `
        UPDATE categories
        SET parent_id = :parent_id,
            name = :name,
            image_url = :image_url,
            depth = :depth,
            sort_order = :sort_order,
            is_leaf = :is_leaf,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := postgres.Conn(ctx, r.DB).NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	_, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	return err
}

func (r *PGRepository) SetLeaf(ctx context.Context, id int64, isLeaf bool) error {
	_, err := postgres.Conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE categories SET is_leaf = $1, updated_at = NOW() WHERE id = $2", isLeaf, id)
	return err
}

func (r *PGRepository) CountChildren(ctx context.Context, id int64) (int, error) {
	var count int
	err := postgres.Conn(ctx, r.DB).GetContext(ctx, &count, "SELECT count(*) FROM categories WHERE parent_id = $1", id)
	return count, err
}

func (r *PGRepository) CountListings(ctx context.Context, id int64) (int, error) {
	var count int
	err := postgres.Conn(ctx, r.DB).GetContext(ctx, &count, "SELECT count(*) FROM listings WHERE category_id = $1", id)
	return count, err
}
