package attribute

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/fekuna/marketplace-listing-service/internal/apperror"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/shopspring/decimal"
)

// RawAttribute is one submitted (key, value) pair. A nil Value is an explicit null.
type RawAttribute struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

func Raw(key, value string) RawAttribute {
	return RawAttribute{Key: key, Value: &value}
}

// UnmarshalJSON accepts any JSON scalar as the value: 125000 and true arrive as
// their literal text.
func (r *RawAttribute) UnmarshalJSON(data []byte) error {
	var wire struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.Key, r.Value = wire.Key, nil

	v := bytes.TrimSpace(wire.Value)
	switch {
	case len(v) == 0 || bytes.Equal(v, []byte("null")):
	case v[0] == '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		r.Value = &s
	case v[0] == '{' || v[0] == '[':
		return apperror.InvalidAttributeValue(wire.Key)
	default:
		s := string(v)
		r.Value = &s
	}
	return nil
}

// BuildAttributeValues type-checks raw pairs against schema and returns one typed
// value per submitted key, in schema order.
//
// The required-key check runs only when raw is non-empty: a listing submitted without
// any attribute payload skips it.
func BuildAttributeValues(schema *Schema, raw []RawAttribute) ([]model.ListingAttributeValue, error) {
	values := make([]model.ListingAttributeValue, 0, len(raw))
	provided := make(map[string]bool, len(raw))

	for _, pair := range raw {
		key := model.NormalizeAttributeKey(pair.Key)
		if key == "" {
			continue
		}
		entry, ok := schema.Get(key)
		if !ok {
			return nil, apperror.UnknownAttributeKey(key)
		}
		if provided[key] {
			return nil, apperror.InvalidAttributeValue(key)
		}
		provided[key] = true

		value, err := coerce(key, entry, pair.Value)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	if len(raw) > 0 {
		for _, entry := range schema.Entries() {
			key := model.NormalizeAttributeKey(entry.Definition.Key)
			if entry.Definition.Required && !provided[key] {
				return nil, apperror.MissingRequiredAttribute(key)
			}
		}
	}

	sort.SliceStable(values, func(i, j int) bool {
		return schema.position(values[i].Key) < schema.position(values[j].Key)
	})
	return values, nil
}

func coerce(key string, entry SchemaEntry, raw *string) (model.ListingAttributeValue, error) {
	def := entry.Definition
	out := model.ListingAttributeValue{
		AttributeDefinitionID: def.ID,
		Key:                   key,
		Label:                 def.Label,
		SortOrder:             def.SortOrder,
	}

	blank := raw == nil || strings.TrimSpace(*raw) == ""
	if blank && def.Required {
		return out, apperror.MissingRequiredAttribute(key)
	}

	switch def.Type {
	case model.AttributeTypeNumber:
		if raw == nil {
			out.Value = model.NullValue(def.Type)
			return out, nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(*raw))
		if err != nil {
			return out, apperror.Wrap(apperror.KindInvalidAttributeValue, key, err)
		}
		if !storableNumber(d) {
			return out, apperror.InvalidAttributeValue(key)
		}
		out.Value = model.NumberValue(d)

	case model.AttributeTypeBoolean:
		if raw == nil {
			out.Value = model.NullValue(def.Type)
			return out, nil
		}
		v := strings.ToLower(strings.TrimSpace(*raw))
		out.Value = model.BoolValue(v == "true" || v == "1")

	case model.AttributeTypeEnum:
		if blank {
			out.Value = model.NullValue(def.Type)
			return out, nil
		}
		opt, ok := entry.Option(strings.TrimSpace(*raw))
		if !ok {
			return out, apperror.InvalidAttributeValue(key)
		}
		out.Value = model.OptionValue(opt.ID)
		out.OptionValue = opt.Value
		out.OptionLabel = opt.Label

	default:
		if raw == nil {
			out.Value = model.NullValue(model.AttributeTypeString)
			return out, nil
		}
		out.Value = model.TextValue(*raw)
	}
	return out, nil
}

// Postgres NUMERIC limits on digits before and after the decimal point.
const (
	maxIntegerDigits  = 131072
	maxFractionDigits = 16383
)

func storableNumber(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	digits := len(d.Coefficient().String())
	if d.Sign() < 0 {
		digits--
	}
	if exp < 0 {
		return -exp <= maxFractionDigits && digits+exp <= maxIntegerDigits
	}
	return digits+exp <= maxIntegerDigits
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
