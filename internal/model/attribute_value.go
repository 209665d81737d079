package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// AttributeValue is a typed EAV value. Exactly one slot is meaningful and it is
// selected by Type; a value built by the constructors cannot carry two slots.
type AttributeValue struct {
	typ      AttributeType
	null     bool
	text     string
	number   decimal.Decimal
	boolean  bool
	optionID int64
}

func TextValue(s string) AttributeValue {
	return AttributeValue{typ: AttributeTypeString, text: s}
}

func NumberValue(d decimal.Decimal) AttributeValue {
	return AttributeValue{typ: AttributeTypeNumber, number: d}
}

func BoolValue(b bool) AttributeValue {
	return AttributeValue{typ: AttributeTypeBoolean, boolean: b}
}

func OptionValue(optionID int64) AttributeValue {
	return AttributeValue{typ: AttributeTypeEnum, optionID: optionID}
}

// NullValue is a typed "no value", e.g. an ENUM stored with no option.
func NullValue(t AttributeType) AttributeValue {
	return AttributeValue{typ: t, null: true}
}

func (v AttributeValue) Type() AttributeType { return v.typ }
func (v AttributeValue) IsNull() bool        { return v.null }

func (v AttributeValue) Text() (string, bool) {
	return v.text, v.typ == AttributeTypeString && !v.null
}

func (v AttributeValue) Number() (decimal.Decimal, bool) {
	return v.number, v.typ == AttributeTypeNumber && !v.null
}

func (v AttributeValue) Bool() (bool, bool) {
	return v.boolean, v.typ == AttributeTypeBoolean && !v.null
}

func (v AttributeValue) OptionID() (int64, bool) {
	return v.optionID, v.typ == AttributeTypeEnum && !v.null
}

func (v AttributeValue) String() string {
	if v.null {
		return "<null>"
	}
	switch v.typ {
	case AttributeTypeString:
		return v.text
	case AttributeTypeNumber:
		return v.number.String()
	case AttributeTypeBoolean:
		return fmt.Sprintf("%t", v.boolean)
	case AttributeTypeEnum:
		return fmt.Sprintf("option:%d", v.optionID)
	}
	return ""
}

func (v AttributeValue) MarshalJSON() ([]byte, error) {
	if v.null {
		return []byte("null"), nil
	}
	switch v.typ {
	case AttributeTypeNumber:
		return json.Marshal(v.number)
	case AttributeTypeBoolean:
		return json.Marshal(v.boolean)
	case AttributeTypeEnum:
		return json.Marshal(v.optionID)
	}
	return json.Marshal(v.text)
}

// ListingAttributeValue is one EAV row. Key, Label, OptionValue and OptionLabel are
// read-side projections of the definition/option and are not persisted on the row.
type ListingAttributeValue struct {
	ID                    int64          `json:"-"`
	ListingID             int64          `json:"-"`
	AttributeDefinitionID int64          `json:"attribute_definition_id"`
	Key                   string         `json:"key"`
	Label                 string         `json:"label,omitempty"`
	Value                 AttributeValue `json:"value"`
	OptionValue           string         `json:"option_value,omitempty"`
	OptionLabel           string         `json:"option_label,omitempty"`
	SortOrder             int            `json:"-"`
}

func (v ListingAttributeValue) Type() AttributeType {
	return v.Value.Type()
}
