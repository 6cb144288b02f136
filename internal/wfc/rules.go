package wfc

import (
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// Rule states that Tile may be placed at a cell whose neighbor in direction
// Dir holds Neighbor. Rules are directional: placing Neighbor to the right of
// Tile does not imply the reverse placement is allowed.
type Rule[T any] struct {
	Tile     T
	Neighbor T
	Dir      Direction
}

// String returns a readable form of the rule
func (r Rule[T]) String() string {
	return fmt.Sprintf("(%v, %v, %s)", r.Tile, r.Neighbor, r.Dir)
}

// RuleSet holds adjacency rules keyed by the full (tile, neighbor, direction)
// triple. Adding a rule twice or removing a missing rule is a no-op.
type RuleSet[T Tile[T]] struct {
	set mapset.Set[Rule[T]]
}

// NewRuleSet creates a rule set containing the given rules
func NewRuleSet[T Tile[T]](rules ...Rule[T]) *RuleSet[T] {
	rs := &RuleSet[T]{set: mapset.New[Rule[T]]()}
	for _, r := range rules {
		rs.set.Put(r)
	}
	return rs
}

// Add inserts a rule
func (rs *RuleSet[T]) Add(r Rule[T]) {
	rs.set.Put(r)
}

// Remove deletes a rule
func (rs *RuleSet[T]) Remove(r Rule[T]) {
	rs.set.Remove(r)
}

// Has returns true if the rule is in the set
func (rs *RuleSet[T]) Has(r Rule[T]) bool {
	return rs.set.Has(r)
}

// Allows returns true if tile may sit next to neighbor in direction dir
func (rs *RuleSet[T]) Allows(tile, neighbor T, dir Direction) bool {
	return rs.set.Has(Rule[T]{Tile: tile, Neighbor: neighbor, Dir: dir})
}

// Len returns the number of rules
func (rs *RuleSet[T]) Len() int {
	return rs.set.Size()
}

// Clone returns an independent copy of the rule set
func (rs *RuleSet[T]) Clone() *RuleSet[T] {
	c := NewRuleSet[T]()
	rs.set.Each(func(r Rule[T]) {
		c.set.Put(r)
	})
	return c
}

// Rules returns the rules ordered by tile, then neighbor (both in variant
// enumeration order), then direction.
func (rs *RuleSet[T]) Rules() []Rule[T] {
	index := make(map[T]int)
	for i, v := range variantsOf[T]() {
		index[v] = i
	}

	rules := make([]Rule[T], 0, rs.set.Size())
	rs.set.Each(func(r Rule[T]) {
		rules = append(rules, r)
	})

	sort.Slice(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if index[a.Tile] != index[b.Tile] {
			return index[a.Tile] < index[b.Tile]
		}
		if index[a.Neighbor] != index[b.Neighbor] {
			return index[a.Neighbor] < index[b.Neighbor]
		}
		return a.Dir < b.Dir
	})
	return rules
}
