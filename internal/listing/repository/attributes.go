package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// PGAttributeStore keeps listing attribute values in listing_attribute_values, one
// row per (listing, definition) with a single populated value column.
type PGAttributeStore struct {
	DB *sqlx.DB
}

func NewPGAttributeStore(db *sqlx.DB) *PGAttributeStore {
	return &PGAttributeStore{DB: db}
}

func (s *PGAttributeStore) Replace(ctx context.Context, listingID int64, values []model.ListingAttributeValue) error {
	db := postgres.Conn(ctx, s.DB)
	if _, err := db.ExecContext(ctx, "DELETE FROM listing_attribute_values WHERE listing_id = $1", listingID); err != nil {
		return fmt.Errorf("delete attribute values: %w", err)
	}
	if len(values) == 0 {
		return nil
	}

	rows := make([]string, 0, len(values))
	args := make([]interface{}, 0, len(values)*6)
	for _, v := range values {
		text, number, boolean, option := slots(v.Value)
		rows = append(rows, "(?, ?, ?, ?, ?, ?)")
		args = append(args, listingID, v.AttributeDefinitionID, text, number, boolean, option)
	}
	query := db.Rebind(`INSERT INTO listing_attribute_values
        (listing_id, attribute_definition_id, text_value, number_value, boolean_value, option_id)
        VALUES ` + strings.Join(rows, ", "))
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert attribute values: %w", err)
	}
	return nil
}

// slots spreads a typed value over the four nullable columns.
func slots(v model.AttributeValue) (text, number, boolean, option interface{}) {
	if s, ok := v.Text(); ok {
		text = s
	}
	if d, ok := v.Number(); ok {
		number = d
	}
	if b, ok := v.Bool(); ok {
		boolean = b
	}
	if id, ok := v.OptionID(); ok {
		option = id
	}
	return text, number, boolean, option
}

type attributeRow struct {
	ID                    int64               `db:"id"`
	ListingID             int64               `db:"listing_id"`
	AttributeDefinitionID int64               `db:"attribute_definition_id"`
	Key                   string              `db:"key"`
	Label                 string              `db:"label"`
	Type                  model.AttributeType `db:"type"`
	SortOrder             int                 `db:"sort_order"`
	TextValue             *string             `db:"text_value"`
	NumberValue           decimal.NullDecimal `db:"number_value"`
	BooleanValue          *bool               `db:"boolean_value"`
	OptionID              *int64              `db:"option_id"`
	OptionValue           *string             `db:"option_value"`
	OptionLabel           *string             `db:"option_label"`
}

func (r attributeRow) toModel() model.ListingAttributeValue {
	out := model.ListingAttributeValue{
		ID:                    r.ID,
		ListingID:             r.ListingID,
		AttributeDefinitionID: r.AttributeDefinitionID,
		Key:                   r.Key,
		Label:                 r.Label,
		SortOrder:             r.SortOrder,
		Value:                 model.NullValue(r.Type),
	}
	switch r.Type {
	case model.AttributeTypeNumber:
		if r.NumberValue.Valid {
			out.Value = model.NumberValue(r.NumberValue.Decimal)
		}
	case model.AttributeTypeBoolean:
		if r.BooleanValue != nil {
			out.Value = model.BoolValue(*r.BooleanValue)
		}
	case model.AttributeTypeEnum:
		if r.OptionID != nil {
			out.Value = model.OptionValue(*r.OptionID)
			if r.OptionValue != nil {
				out.OptionValue = *r.OptionValue
			}
			if r.OptionLabel != nil {
				out.OptionLabel = *r.OptionLabel
			}
		}
	default:
		if r.TextValue != nil {
			out.Value = model.TextValue(*r.TextValue)
		}
	}
	return out
}

func (s *PGAttributeStore) LoadForListing(ctx context.Context, listingID int64) ([]model.ListingAttributeValue, error) {
	query := `
        SELECT lav.id, lav.listing_id, lav.attribute_definition_id, ad.key, ad.label, ad.type, ad.sort_order,
               lav.text_value, lav.number_value, lav.boolean_value, lav.option_id,
               ao.value AS option_value, ao.label AS option_label
        FROM listing_attribute_values lav
        JOIN attribute_definitions ad ON ad.id = lav.attribute_definition_id
        LEFT JOIN attribute_options ao ON ao.id = lav.option_id
        WHERE lav.listing_id = $1
        ORDER BY ad.sort_order ASC, ad.id ASC
    `
	var rows []attributeRow
	if err := postgres.Conn(ctx, s.DB).SelectContext(ctx, &rows, query, listingID); err != nil {
		return nil, fmt.Errorf("load attribute values: %w", err)
	}

	out := make([]model.ListingAttributeValue, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}
