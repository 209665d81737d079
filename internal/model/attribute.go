package model

import (
	"strings"
	"time"
)

type AttributeType string

const (
	AttributeTypeString  AttributeType = "STRING"
	AttributeTypeNumber  AttributeType = "NUMBER"
	AttributeTypeBoolean AttributeType = "BOOLEAN"
	AttributeTypeEnum    AttributeType = "ENUM"
)

// ParseAttributeType is strict: admin-declared types must be one of the four known kinds.
func ParseAttributeType(s string) (AttributeType, bool) {
	switch t := AttributeType(strings.ToUpper(strings.TrimSpace(s))); t {
	case AttributeTypeString, AttributeTypeNumber, AttributeTypeBoolean, AttributeTypeEnum:
		return t, true
	}
	return "", false
}

type AttributeDefinition struct {
	ID         int64         `db:"id" json:"id"`
	CategoryID int64         `db:"category_id" json:"category_id"`
	Key        string        `db:"key" json:"key"`
	Label      string        `db:"label" json:"label"`
	Type       AttributeType `db:"type" json:"type"`
	Unit       *string       `db:"unit" json:"unit"`
	Required   bool          `db:"required" json:"required"`
	SortOrder  int           `db:"sort_order" json:"sort_order"`
	Active     bool          `db:"active" json:"active"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

type AttributeOption struct {
	ID                    int64  `db:"id" json:"id"`
	AttributeDefinitionID int64  `db:"attribute_definition_id" json:"attribute_definition_id"`
	Value                 string `db:"value" json:"value"`
	Label                 string `db:"label" json:"label"`
	SortOrder             int    `db:"sort_order" json:"sort_order"`
}

// NormalizeAttributeKey lower-cases and trims a key the same way on write and on lookup.
func NormalizeAttributeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// NormalizeOptionValue turns an option label like "Hybrid Plug-in" into "hybrid_plug-in".
func NormalizeOptionValue(v string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), " ", "_")
}
