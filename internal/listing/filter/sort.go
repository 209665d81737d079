package filter

import (
	"strings"

	"github.com/fekuna/marketplace-listing-service/internal/model"
)

type SortSpec struct {
	Field string `json:"field"`
	Dir   string `json:"dir,omitempty"`
}

type sortField int

const (
	sortCreatedAt sortField = iota
	sortPrice
	sortPublishedAt
)

// Only these logical names may be sorted on.
var sortFields = map[string]sortField{
	"price":       sortPrice,
	"priceamount": sortPrice,
	"createdat":   sortCreatedAt,
	"publishedat": sortPublishedAt,
}

var sortColumns = map[sortField]string{
	sortCreatedAt:   "l.created_at",
	sortPrice:       "l.price",
	sortPublishedAt: "l.published_at",
}

type orderTerm struct {
	field sortField
	desc  bool
}

// Order is a validated sort. The zero value sorts newest first.
type Order struct {
	terms []orderTerm
}

// ParseSort keeps the allow-listed entries in order and drops the rest. Without a
// usable entry the result is created time descending.
func ParseSort(specs []SortSpec) Order {
	o := Order{}
	seen := map[sortField]bool{}
	for _, s := range specs {
		f, ok := sortFields[strings.ToLower(strings.TrimSpace(s.Field))]
		if !ok || seen[f] {
			continue
		}
		seen[f] = true
		o.terms = append(o.terms, orderTerm{field: f, desc: !strings.EqualFold(strings.TrimSpace(s.Dir), "asc")})
	}
	return o
}

func (o Order) effective() []orderTerm {
	if len(o.terms) == 0 {
		return []orderTerm{{field: sortCreatedAt, desc: true}}
	}
	return o.terms
}

// SQL renders the ORDER BY list; l.id DESC is always the final tie-breaker.
func (o Order) SQL() string {
	terms := o.effective()
	parts := make([]string, 0, len(terms)+1)
	for _, t := range terms {
		dir := "ASC"
		if t.desc {
			dir = "DESC"
		}
		parts = append(parts, sortColumns[t.field]+" "+dir+" NULLS LAST")
	}
	parts = append(parts, "l.id DESC")
	return strings.Join(parts, ", ")
}

// Less orders two listings the same way SQL does.
func (o Order) Less(a, b *model.Listing) bool {
	for _, t := range o.effective() {
		// NULLS LAST in both directions.
		if t.field == sortPublishedAt && (a.PublishedAt == nil) != (b.PublishedAt == nil) {
			return b.PublishedAt == nil
		}
		c := compare(t.field, a, b)
		if c == 0 {
			continue
		}
		if t.desc {
			return c > 0
		}
		return c < 0
	}
	return a.ID > b.ID
}

func compare(f sortField, a, b *model.Listing) int {
	switch f {
	case sortPrice:
		return a.Price.Cmp(b.Price)
	case sortPublishedAt:
		if a.PublishedAt == nil || b.PublishedAt == nil {
			return 0
		}
		return a.PublishedAt.Compare(*b.PublishedAt)
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}
