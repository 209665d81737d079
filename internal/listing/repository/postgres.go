package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/listing/filter"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

const listingColumns = `id, public_id, category_id, seller_id, title, description, price, currency, negotiable,
        location_city, location_region, latitude, longitude, status, reject_reason, published_at, expires_at,
        created_at, updated_at`

const summaryColumns = `l.public_id, l.category_id, l.seller_id, l.title, l.price, l.currency, l.negotiable,
        l.location_city, l.status, l.published_at, l.created_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, l *model.Listing) error {
	query := `
        INSERT INTO listings (public_id, category_id, seller_id, title, description, price, currency, negotiable,
            location_city, location_region, latitude, longitude, status, reject_reason, published_at, expires_at,
            created_at, updated_at)
        VALUES (:public_id, :category_id, :seller_id, :title, :description, :price, :currency, :negotiable,
            :location_city, :location_region, :latitude, :longitude, :status, :reject_reason, :published_at, :expires_at,
            :created_at, :updated_at)
        RETURNING id
    `
	db := postgres.Conn(ctx, r.DB)
	query, args, err := db.BindNamed(query, l)
	if err != nil {
		return err
	}
	return db.QueryRowxContext(ctx, query, args...).Scan(&l.ID)
}

func (r *PGRepository) Update(ctx context.Context, l *model.Listing) error {
	query := `
        UPDATE listings
        SET category_id = :category_id,
            title = :title,
            description = :description,
            price = :price,
            currency = :currency,
            negotiable = :negotiable,
            location_city = :location_city,
            location_region = :location_region,
            latitude = :latitude,
            longitude = :longitude,
            status = :status,
            reject_reason = :reject_reason,
            published_at = :published_at,
            expires_at = :expires_at,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := postgres.Conn(ctx, r.DB).NamedExecContext(ctx, query, l)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	_, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, "DELETE FROM listings WHERE id = $1", id)
	return err
}

func (r *PGRepository) FindByPublicID(ctx context.Context, publicID string) (*model.Listing, error) {
	return r.findOne(ctx, `SELECT `+listingColumns+` FROM listings WHERE public_id = $1 LIMIT 1`, publicID)
}

func (r *PGRepository) FindByPublicIDForUpdate(ctx context.Context, publicID string) (*model.Listing, error) {
	return r.findOne(ctx, `SELECT `+listingColumns+` FROM listings WHERE public_id = $1 FOR UPDATE`, publicID)
}

func (r *PGRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.Listing, error) {
	var l model.Listing
	if err := postgres.Conn(ctx, r.DB).GetContext(ctx, &l, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *PGRepository) Search(ctx context.Context, where filter.Predicate, order filter.Order, limit, offset int) ([]model.ListingSummary, int, error) {
	db := postgres.Conn(ctx, r.DB)
	cond, args := where.SQL()

	var total int
	countQuery := db.Rebind(`SELECT count(*) FROM listings l WHERE ` + cond)
	if err := db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}
	if total == 0 {
		return []model.ListingSummary{}, 0, nil
	}

	query := db.Rebind(`SELECT ` + summaryColumns + ` FROM listings l WHERE ` + cond +
		` ORDER BY ` + order.SQL() + ` LIMIT ? OFFSET ?`)
	var items []model.ListingSummary
	if err := db.SelectContext(ctx, &items, query, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("search listings: %w", err)
	}
	return items, total, nil
}

func (r *PGRepository) ExpireOverdue(ctx context.Context, now time.Time, limit int) ([]model.Listing, error) {
	query := `
        UPDATE listings
        SET status = $1, updated_at = $2
        WHERE id IN (
            SELECT id FROM listings
            WHERE status = $3 AND expires_at < $2
            ORDER BY expires_at ASC
            LIMIT $4
            FOR UPDATE SKIP LOCKED
        )
        RETURNING ` + listingColumns
	var expired []model.Listing
	err := postgres.Conn(ctx, r.DB).SelectContext(ctx, &expired, query,
		string(model.ListingStatusExpired), now, string(model.ListingStatusActive), limit)
	if err != nil {
		return nil, fmt.Errorf("expire overdue listings: %w", err)
	}
	return expired, nil
}
