// Package filter compiles listing search filters into SQL predicates. Every
// condition can also be evaluated against an in-memory listing, which keeps
// the SQL and the semantics it encodes side by side.
package filter

import (
	"strings"

	"github.com/fekuna/marketplace-listing-service/internal/model"
)

// Condition is one self-contained boolean condition over a listing row aliased "l".
// SQL uses "?" placeholders; callers Rebind for their driver.
type Condition interface {
	SQL() (string, []interface{})
	Match(l *model.Listing) bool
}

// Predicate is a conjunction of conditions.
type Predicate struct {
	conds []Condition
}

func And(conds ...Condition) Predicate {
	return Predicate{}.And(conds...)
}

func (p Predicate) And(conds ...Condition) Predicate {
	return Predicate{conds: append(append([]Condition(nil), p.conds...), conds...)}
}

func (p Predicate) Len() int {
	return len(p.conds)
}

func (p Predicate) SQL() (string, []interface{}) {
	if len(p.conds) == 0 {
		return "TRUE", nil
	}
	parts := make([]string, 0, len(p.conds))
	var args []interface{}
	for _, c := range p.conds {
		sql, a := c.SQL()
		parts = append(parts, "("+sql+")")
		args = append(args, a...)
	}
	return strings.Join(parts, " AND "), args
}

func (p Predicate) Match(l *model.Listing) bool {
	for _, c := range p.conds {
		if !c.Match(l) {
			return false
		}
	}
	return true
}

type statusIn []model.ListingStatus

func StatusIn(statuses ...model.ListingStatus) Condition {
	return statusIn(statuses)
}

func (s statusIn) SQL() (string, []interface{}) {
	if len(s) == 0 {
		return "FALSE", nil
	}
	args := make([]interface{}, 0, len(s))
	for _, st := range s {
		args = append(args, string(st))
	}
	return "l.status IN (" + placeholders(len(s)) + ")", args
}

func (s statusIn) Match(l *model.Listing) bool {
	for _, st := range s {
		if l.Status == st {
			return true
		}
	}
	return false
}

type categoryIn []int64

// CategoryIn restricts to the given categories. An empty set matches nothing.
func CategoryIn(ids []int64) Condition {
	return categoryIn(ids)
}

func (c categoryIn) SQL() (string, []interface{}) {
	if len(c) == 0 {
		return "FALSE", nil
	}
	args := make([]interface{}, 0, len(c))
	for _, id := range c {
		args = append(args, id)
	}
	return "l.category_id IN (" + placeholders(len(c)) + ")", args
}

func (c categoryIn) Match(l *model.Listing) bool {
	for _, id := range c {
		if l.CategoryID == id {
			return true
		}
	}
	return false
}

type sellerEq string

func SellerEq(sellerID string) Condition {
	return sellerEq(sellerID)
}

func (s sellerEq) SQL() (string, []interface{}) {
	return "l.seller_id = ?", []interface{}{string(s)}
}

func (s sellerEq) Match(l *model.Listing) bool {
	return l.SellerID == string(s)
}

type textContains string

// TextContains is a case-insensitive substring match over title and description.
func TextContains(q string) Condition {
	return textContains(strings.ToLower(strings.TrimSpace(q)))
}

func (t textContains) SQL() (string, []interface{}) {
	pattern := "%" + escapeLike(string(t)) + "%"
	return `lower(l.title) LIKE ? ESCAPE '\' OR lower(coalesce(l.description, '')) LIKE ? ESCAPE '\'`,
		[]interface{}{pattern, pattern}
}

func (t textContains) Match(l *model.Listing) bool {
	if strings.Contains(strings.ToLower(l.Title), string(t)) {
		return true
	}
	return l.Description != nil && strings.Contains(strings.ToLower(*l.Description), string(t))
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
