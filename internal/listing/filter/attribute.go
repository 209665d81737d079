package filter

import (
	"strings"

	"github.com/fekuna/marketplace-listing-service/internal/apperror"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/shopspring/decimal"
)

type Op string

const (
	OpEq      Op = "eq"
	OpIn      Op = "in"
	OpLike    Op = "like"
	OpGte     Op = "gte"
	OpLte     Op = "lte"
	OpBetween Op = "between"
)

// AttributeFilter is one entry of the search DSL. Unknown types fall back to STRING
// and unknown operators to eq.
type AttributeFilter struct {
	Key    string   `json:"key"`
	Type   string   `json:"type,omitempty"`
	Op     string   `json:"op,omitempty"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
	From   string   `json:"from,omitempty"`
	To     string   `json:"to,omitempty"`
}

func (f AttributeFilter) normalizedType() model.AttributeType {
	if t, ok := model.ParseAttributeType(f.Type); ok {
		return t
	}
	return model.AttributeTypeString
}

func (f AttributeFilter) normalizedOp(t model.AttributeType) Op {
	op := Op(strings.ToLower(strings.TrimSpace(f.Op)))
	switch t {
	case model.AttributeTypeEnum:
		if op == OpIn {
			return op
		}
	case model.AttributeTypeNumber:
		if op == OpGte || op == OpLte || op == OpBetween {
			return op
		}
	case model.AttributeTypeString:
		if op == OpLike {
			return op
		}
	}
	return OpEq
}

// Build compiles filters into one AND-ed predicate, one existence check per filter.
// Filters with a blank key are ignored. A NUMBER operand that is not a decimal
// fails with InvalidAttributeValue naming the key.
func Build(filters []AttributeFilter) (Predicate, error) {
	p := Predicate{}
	for _, f := range filters {
		c, err := compile(f)
		if err != nil {
			return Predicate{}, err
		}
		if c != nil {
			p = p.And(c)
		}
	}
	return p, nil
}

func compile(f AttributeFilter) (Condition, error) {
	key := model.NormalizeAttributeKey(f.Key)
	if key == "" {
		return nil, nil
	}
	typ := f.normalizedType()
	c := &attributeCondition{key: key, typ: typ, op: f.normalizedOp(typ)}

	switch typ {
	case model.AttributeTypeEnum:
		if c.op == OpIn {
			for _, v := range f.Values {
				if v = strings.TrimSpace(v); v != "" {
					c.texts = append(c.texts, strings.ToLower(v))
				}
			}
		} else {
			c.texts = []string{strings.ToLower(strings.TrimSpace(f.Value))}
		}

	case model.AttributeTypeNumber:
		var err error
		if c.op == OpBetween {
			if c.from, err = parseOperand(key, f.From); err != nil {
				return nil, err
			}
			if c.to, err = parseOperand(key, f.To); err != nil {
				return nil, err
			}
		} else {
			if c.from, err = parseOperand(key, f.Value); err != nil {
				return nil, err
			}
			if c.from == nil {
				return nil, apperror.InvalidAttributeValue(key)
			}
		}

	case model.AttributeTypeBoolean:
		v := strings.ToLower(strings.TrimSpace(f.Value))
		c.boolean = v == "true" || v == "1"

	default:
		c.texts = []string{strings.ToLower(f.Value)}
	}
	return c, nil
}

func parseOperand(key, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidAttributeValue, key, err)
	}
	return &d, nil
}

// attributeCondition is a correlated EXISTS over the EAV table.
type attributeCondition struct {
	key     string
	typ     model.AttributeType
	op      Op
	texts   []string
	from    *decimal.Decimal // eq/gte/lte operand, or lower bound of between
	to      *decimal.Decimal
	boolean bool
}

func (c *attributeCondition) SQL() (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`EXISTS (SELECT 1 FROM listing_attribute_values lav
        JOIN attribute_definitions ad ON ad.id = lav.attribute_definition_id`)
	if c.typ == model.AttributeTypeEnum {
		sb.WriteString(`
        JOIN attribute_options ao ON ao.id = lav.option_id`)
	}
	sb.WriteString(`
        WHERE lav.listing_id = l.id AND lower(ad.key) = ?`)
	args := []interface{}{c.key}

	switch c.typ {
	case model.AttributeTypeEnum:
		switch {
		case c.op == OpIn && len(c.texts) > 0:
			sb.WriteString(" AND lower(ao.value) IN (" + placeholders(len(c.texts)) + ")")
			for _, v := range c.texts {
				args = append(args, v)
			}
		case c.op == OpEq:
			sb.WriteString(" AND lower(ao.value) = ?")
			args = append(args, c.texts[0])
		}

	case model.AttributeTypeNumber:
		switch c.op {
		case OpBetween:
			if c.from != nil {
				sb.WriteString(" AND lav.number_value >= ?")
				args = append(args, *c.from)
			}
			if c.to != nil {
				sb.WriteString(" AND lav.number_value <= ?")
				args = append(args, *c.to)
			}
		case OpGte:
			sb.WriteString(" AND lav.number_value >= ?")
			args = append(args, *c.from)
		case OpLte:
			sb.WriteString(" AND lav.number_value <= ?")
			args = append(args, *c.from)
		default:
			sb.WriteString(" AND lav.number_value = ?")
			args = append(args, *c.from)
		}

	case model.AttributeTypeBoolean:
		sb.WriteString(" AND lav.boolean_value = ?")
		args = append(args, c.boolean)

	default:
		if c.op == OpLike {
			sb.WriteString(` AND lower(lav.text_value) LIKE ? ESCAPE '\'`)
			args = append(args, "%"+escapeLike(c.texts[0])+"%")
		} else {
			sb.WriteString(" AND lower(lav.text_value) = ?")
			args = append(args, c.texts[0])
		}
	}

	sb.WriteString(")")
	return sb.String(), args
}

func (c *attributeCondition) Match(l *model.Listing) bool {
	for _, a := range l.Attributes {
		if model.NormalizeAttributeKey(a.Key) == c.key && c.matchValue(a) {
			return true
		}
	}
	return false
}

func (c *attributeCondition) matchValue(a model.ListingAttributeValue) bool {
	switch c.typ {
	case model.AttributeTypeEnum:
		if _, ok := a.Value.OptionID(); !ok {
			return false
		}
		v := strings.ToLower(a.OptionValue)
		if c.op == OpIn {
			if len(c.texts) == 0 {
				return true
			}
			for _, t := range c.texts {
				if v == t {
					return true
				}
			}
			return false
		}
		return v == c.texts[0]

	case model.AttributeTypeNumber:
		n, ok := a.Value.Number()
		if !ok {
			return false
		}
		switch c.op {
		case OpBetween:
			return (c.from == nil || n.GreaterThanOrEqual(*c.from)) && (c.to == nil || n.LessThanOrEqual(*c.to))
		case OpGte:
			return n.GreaterThanOrEqual(*c.from)
		case OpLte:
			return n.LessThanOrEqual(*c.from)
		}
		return n.Equal(*c.from)

	case model.AttributeTypeBoolean:
		b, ok := a.Value.Bool()
		return ok && b == c.boolean
	}

	text, ok := a.Value.Text()
	if !ok {
		return false
	}
	text = strings.ToLower(text)
	if c.op == OpLike {
		return strings.Contains(text, c.texts[0])
	}
	return text == c.texts[0]
}
