package category

import (
	"sort"
	"strings"

	"github.com/fekuna/marketplace-listing-service/internal/apperror"
	"github.com/fekuna/marketplace-listing-service/internal/model"
)

// Tree is an immutable snapshot of all categories: an arena indexed by id plus a
// parent -> children adjacency index. All traversals are iterative.
type Tree struct {
	nodes    map[int64]model.Category
	children map[int64][]int64
	roots    []int64
}

func NewTree(categories []model.Category) *Tree {
	t := &Tree{
		nodes:    make(map[int64]model.Category, len(categories)),
		children: make(map[int64][]int64),
	}
	for _, c := range categories {
		c.Children = nil
		t.nodes[c.ID] = c
	}
	for _, c := range t.nodes {
		if c.ParentID != nil {
			if _, ok := t.nodes[*c.ParentID]; ok {
				t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
				continue
			}
		}
		// Orphans are surfaced as roots rather than dropped.
		t.roots = append(t.roots, c.ID)
	}

	for parentID := range t.children {
		t.sortIDs(t.children[parentID])
	}
	t.sortIDs(t.roots)
	return t
}

func (t *Tree) sortIDs(ids []int64) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := t.nodes[ids[i]], t.nodes[ids[j]]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.ID < b.ID
	})
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) Get(id int64) (model.Category, bool) {
	c, ok := t.nodes[id]
	return c, ok
}

// Categories returns the flat node list, used to serialize the snapshot.
func (t *Tree) Categories() []model.Category {
	out := make([]model.Category, 0, len(t.nodes))
	for _, id := range t.bfsOrder() {
		out = append(out, t.nodes[id])
	}
	return out
}

func (t *Tree) ChildIDs(id int64) []int64 {
	return append([]int64(nil), t.children[id]...)
}

func (t *Tree) IsLeaf(id int64) (bool, error) {
	if _, ok := t.nodes[id]; !ok {
		return false, apperror.CategoryNotFound(id)
	}
	return len(t.children[id]) == 0, nil
}

// PathToRoot returns the ancestor chain root first, the queried node last.
func (t *Tree) PathToRoot(id int64) ([]model.Category, error) {
	node, ok := t.nodes[id]
	if !ok {
		return nil, apperror.CategoryNotFound(id)
	}

	path := []model.Category{node}
	seen := map[int64]bool{id: true}
	for node.ParentID != nil {
		parent, ok := t.nodes[*node.ParentID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		path = append(path, parent)
		node = parent
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// DescendantIDs returns id and every category below it.
func (t *Tree) DescendantIDs(id int64) ([]int64, error) {
	if _, ok := t.nodes[id]; !ok {
		return nil, apperror.CategoryNotFound(id)
	}

	ids := []int64{}
	seen := map[int64]bool{}
	stack := []int64{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		ids = append(ids, cur)
		stack = append(stack, t.children[cur]...)
	}
	return ids, nil
}

func (t *Tree) bfsOrder() []int64 {
	order := make([]int64, 0, len(t.nodes))
	seen := make(map[int64]bool, len(t.nodes))
	queue := append([]int64(nil), t.roots...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		order = append(order, cur)
		queue = append(queue, t.children[cur]...)
	}
	return order
}

// Nested returns the roots with Children populated, ordered by (sortOrder, name).
// Nodes are assembled bottom-up in reverse breadth-first order.
func (t *Tree) Nested() []model.Category {
	order := t.bfsOrder()
	built := make(map[int64]model.Category, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		node := t.nodes[id]
		kids := t.children[id]
		node.Children = make([]model.Category, 0, len(kids))
		for _, childID := range kids {
			node.Children = append(node.Children, built[childID])
		}
		built[id] = node
	}

	roots := make([]model.Category, 0, len(t.roots))
	for _, id := range t.roots {
		roots = append(roots, built[id])
	}
	return roots
}
