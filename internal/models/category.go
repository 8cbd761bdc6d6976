// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Category nesting levels. The storefront supports three levels:
// category, subcategory and sub-subcategory.
const (
	LevelMain   = 0
	LevelSub    = 1
	LevelNested = 2

	// MaxLevel is the deepest level a category can sit at.
	MaxLevel = LevelNested
)

// Category represents one node of the storefront category forest.
// IDs are assigned by the remote backend and are unique across the forest.
type Category struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Image        string  `json:"image"`
	InternalLink string  `json:"internal_link,omitempty"`
	IsActive     bool    `json:"is_active"`
	ParentID     *string `json:"parent_id"`
	Level        int     `json:"level"`
	ProductCount int     `json:"product_count"`

	// Children keeps creation order.
	Children []Category `json:"children"`
}

// HasChildren reports whether the category currently has any children.
func (c *Category) HasChildren() bool {
	return len(c.Children) > 0
}

// IsRoot returns true for top-level categories.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// CanHaveChildren reports whether a child may be created below this category.
func (c *Category) CanHaveChildren() bool {
	return c.Level < MaxLevel
}

// ParentIDValue returns the parent ID or an empty string for roots.
func (c *Category) ParentIDValue() string {
	if c.ParentID == nil {
		return ""
	}
	return *c.ParentID
}

// Summary is a flat, children-free view of a category used in list
// responses where only the immediate page is shown.
type Summary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Image         string  `json:"image"`
	InternalLink  string  `json:"internal_link,omitempty"`
	IsActive      bool    `json:"is_active"`
	ParentID      *string `json:"parent_id"`
	Level         int     `json:"level"`
	ProductCount  int     `json:"product_count"`
	HasChildren   bool    `json:"has_children"`
	ChildrenCount int     `json:"children_count"`
}

// Summarize returns the list view of the category.
func (c *Category) Summarize() Summary {
	return Summary{
		ID:            c.ID,
		Name:          c.Name,
		Image:         c.Image,
		InternalLink:  c.InternalLink,
		IsActive:      c.IsActive,
		ParentID:      c.ParentID,
		Level:         c.Level,
		ProductCount:  c.ProductCount,
		HasChildren:   c.HasChildren(),
		ChildrenCount: len(c.Children),
	}
}
