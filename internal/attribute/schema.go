package attribute

import (
	"sort"

	"github.com/fekuna/marketplace-listing-service/internal/model"
)

type SchemaEntry struct {
	Definition model.AttributeDefinition `json:"definition"`
	Options    []model.AttributeOption   `json:"options"`
}

// Option finds an option by value, ignoring case. The normalized spelling of raw
// is accepted as well, so "Plug In" finds "plug_in".
func (e SchemaEntry) Option(raw string) (model.AttributeOption, bool) {
	normalized := model.NormalizeOptionValue(raw)
	for _, o := range e.Options {
		if equalFold(o.Value, raw) || o.Value == normalized {
			return o, true
		}
	}
	return model.AttributeOption{}, false
}

// Schema is an insertion-ordered map of normalized key -> entry. Put on an existing
// key replaces the entry but keeps its original position.
type Schema struct {
	keys    []string
	entries map[string]SchemaEntry
}

func NewSchema() *Schema {
	return &Schema{entries: map[string]SchemaEntry{}}
}

func (s *Schema) Put(entry SchemaEntry) {
	key := model.NormalizeAttributeKey(entry.Definition.Key)
	if _, ok := s.entries[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.entries[key] = entry
}

func (s *Schema) Get(key string) (SchemaEntry, bool) {
	e, ok := s.entries[model.NormalizeAttributeKey(key)]
	return e, ok
}

func (s *Schema) Len() int {
	return len(s.keys)
}

func (s *Schema) Keys() []string {
	return append([]string(nil), s.keys...)
}

func (s *Schema) Entries() []SchemaEntry {
	out := make([]SchemaEntry, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.entries[k])
	}
	return out
}

func (s *Schema) position(key string) int {
	for i, k := range s.keys {
		if k == key {
			return i
		}
	}
	return len(s.keys)
}

// Resolve builds the effective schema for the last category of path (root first).
// Definitions of each node are applied in (sortOrder, id) order and a deeper node
// overrides any ancestor definition with the same key. Inactive definitions are skipped.
func Resolve(path []model.Category, definitions []model.AttributeDefinition, options []model.AttributeOption) *Schema {
	byCategory := make(map[int64][]model.AttributeDefinition)
	for _, d := range definitions {
		if !d.Active {
			continue
		}
		byCategory[d.CategoryID] = append(byCategory[d.CategoryID], d)
	}

	byDefinition := make(map[int64][]model.AttributeOption)
	for _, o := range options {
		byDefinition[o.AttributeDefinitionID] = append(byDefinition[o.AttributeDefinitionID], o)
	}
	for id := range byDefinition {
		opts := byDefinition[id]
		sort.SliceStable(opts, func(i, j int) bool {
			if opts[i].SortOrder != opts[j].SortOrder {
				return opts[i].SortOrder < opts[j].SortOrder
			}
			return opts[i].ID < opts[j].ID
		})
	}

	schema := NewSchema()
	for _, node := range path {
		defs := byCategory[node.ID]
		sort.SliceStable(defs, func(i, j int) bool {
			if defs[i].SortOrder != defs[j].SortOrder {
				return defs[i].SortOrder < defs[j].SortOrder
			}
			return defs[i].ID < defs[j].ID
		})
		for _, d := range defs {
			opts := byDefinition[d.ID]
			if opts == nil {
				opts = []model.AttributeOption{}
			}
			schema.Put(SchemaEntry{Definition: d, Options: opts})
		}
	}
	return schema
}
