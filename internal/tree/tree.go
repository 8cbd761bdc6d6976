// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tree implements immutable operations over the category forest.
// Every function returns a new forest and leaves its input untouched;
// subtrees that are not on the path to the changed node keep their
// backing arrays so callers can detect unchanged branches cheaply.
// Traversal is bounded by models.MaxLevel.
package tree

import (
	"slices"

	"shopdesk/internal/models"
)

// Updater produces the replacement for a matched category.
type Updater func(models.Category) models.Category

// Find returns a copy of the category with the given ID. The second result
// is false when no such category exists, which callers treat as a no-op.
func Find(forest []models.Category, id string) (models.Category, bool) {
	c, ok := find(forest, id, models.LevelMain)
	if !ok {
		return models.Category{}, false
	}
	return *c, true
}

func find(nodes []models.Category, id string, depth int) (*models.Category, bool) {
	if depth > models.MaxLevel {
		return nil, false
	}
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i], true
		}
	}
	for i := range nodes {
		if c, ok := find(nodes[i].Children, id, depth+1); ok {
			return c, true
		}
	}
	return nil, false
}

// Contains reports whether a category with the given ID is in the forest.
func Contains(forest []models.Category, id string) bool {
	_, ok := find(forest, id, models.LevelMain)
	return ok
}

// ChildrenOf returns the immediate children of the category with the given
// ID. An empty id returns the root list.
func ChildrenOf(forest []models.Category, id string) ([]models.Category, bool) {
	if id == "" {
		return forest, true
	}
	c, ok := find(forest, id, models.LevelMain)
	if !ok {
		return nil, false
	}
	return c.Children, true
}

// Replace returns a forest where the category matching id is replaced by
// fn(old). When nothing matches, the input slice is returned unchanged.
func Replace(forest []models.Category, id string, fn Updater) ([]models.Category, bool) {
	return replace(forest, id, fn, models.LevelMain)
}

func replace(nodes []models.Category, id string, fn Updater, depth int) ([]models.Category, bool) {
	if depth > models.MaxLevel || len(nodes) == 0 {
		return nodes, false
	}
	for i := range nodes {
		if nodes[i].ID == id {
			out := slices.Clone(nodes)
			out[i] = fn(nodes[i])
			return out, true
		}
		if children, ok := replace(nodes[i].Children, id, fn, depth+1); ok {
			out := slices.Clone(nodes)
			out[i].Children = children
			return out, true
		}
	}
	return nodes, false
}

// Remove returns a forest without the category matching id (and its
// subtree). The parent's HasChildren follows from its new Children length.
func Remove(forest []models.Category, id string) ([]models.Category, bool) {
	return remove(forest, id, models.LevelMain)
}

func remove(nodes []models.Category, id string, depth int) ([]models.Category, bool) {
	if depth > models.MaxLevel || len(nodes) == 0 {
		return nodes, false
	}
	for i := range nodes {
		if nodes[i].ID == id {
			out := make([]models.Category, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			out = append(out, nodes[i+1:]...)
			return out, true
		}
		if children, ok := remove(nodes[i].Children, id, depth+1); ok {
			out := slices.Clone(nodes)
			out[i].Children = children
			return out, true
		}
	}
	return nodes, false
}

// AppendRoot returns a forest with c appended to the root list.
func AppendRoot(forest []models.Category, c models.Category) []models.Category {
	c.Level = models.LevelMain
	c.ParentID = nil
	if c.Children == nil {
		c.Children = []models.Category{}
	}
	return append(slices.Clip(forest), c)
}

// AppendChild returns a forest with child appended to the children of the
// category matching parentID. Level and ParentID of the child are derived
// from the parent. Returns false when the parent is missing or already at
// models.MaxLevel.
func AppendChild(forest []models.Category, parentID string, child models.Category) ([]models.Category, bool) {
	parent, ok := find(forest, parentID, models.LevelMain)
	if !ok || !parent.CanHaveChildren() {
		return forest, false
	}
	return Replace(forest, parentID, func(p models.Category) models.Category {
		pid := p.ID
		child.ParentID = &pid
		child.Level = p.Level + 1
		if child.Children == nil {
			child.Children = []models.Category{}
		}
		p.Children = append(slices.Clip(p.Children), child)
		return p
	})
}

// Build normalizes a backend category listing into a well-formed forest.
// Nesting wins over the parent ID carried by a node; categories listed both
// nested and flat appear once; categories below models.MaxLevel or whose
// parent is missing are dropped. Sibling order follows the input order.
func Build(nodes []models.Category) []models.Category {
	var flat []models.Category
	collect(nodes, nil, &flat, make(map[string]bool))
	return buildLevel(flat, nil, models.LevelMain)
}

func collect(nodes []models.Category, parentID *string, flat *[]models.Category, seen map[string]bool) {
	for _, n := range nodes {
		if parentID != nil {
			pid := *parentID
			n.ParentID = &pid
		}
		children := n.Children
		n.Children = nil
		if !seen[n.ID] {
			seen[n.ID] = true
			*flat = append(*flat, n)
		}
		id := n.ID
		collect(children, &id, flat, seen)
	}
}

// buildLevel builds one level of the forest from a flat list.
func buildLevel(flat []models.Category, parentID *string, depth int) []models.Category {
	result := []models.Category{}
	if depth > models.MaxLevel {
		return result
	}
	for _, c := range flat {
		if ptrEqual(c.ParentID, parentID) {
			c.Level = depth
			id := c.ID
			c.Children = buildLevel(flat, &id, depth+1)
			result = append(result, c)
		}
	}
	return result
}

// ptrEqual compares two *string for equality (both nil or same value).
func ptrEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// Flatten walks the forest depth-first and returns every category in
// display order. Useful for parent <select> lists.
func Flatten(forest []models.Category) []models.Category {
	var result []models.Category
	flatten(forest, &result, models.LevelMain)
	return result
}

func flatten(nodes []models.Category, result *[]models.Category, depth int) {
	if depth > models.MaxLevel {
		return
	}
	for _, c := range nodes {
		*result = append(*result, c)
		if len(c.Children) > 0 {
			flatten(c.Children, result, depth+1)
		}
	}
}

// Count returns the number of categories in the forest.
func Count(forest []models.Category) int {
	n := 0
	for _, c := range forest {
		n += 1 + Count(c.Children)
	}
	return n
}
