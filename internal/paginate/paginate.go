// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package paginate slices in-memory lists into pages and keeps
// independent page settings per list (the root list and each category's
// children list).
package paginate

const (
	// DefaultPage is the first page number.
	DefaultPage = 1

	// DefaultPerPage is how many categories a page shows by default.
	DefaultPerPage = 3

	// MaxPerPage caps page sizes requested by clients.
	MaxPerPage = 100

	// RootKey identifies the root category list in a Book.
	RootKey = ""
)

// State is the page setting of a single list.
type State struct {
	CurrentPage  int `json:"current_page"`
	ItemsPerPage int `json:"items_per_page"`
}

// DefaultState returns page 1 with the default page size.
func DefaultState() State {
	return State{CurrentPage: DefaultPage, ItemsPerPage: DefaultPerPage}
}

// normalize replaces out-of-range values with defaults.
func (s State) normalize() State {
	if s.CurrentPage < 1 {
		s.CurrentPage = DefaultPage
	}
	if s.ItemsPerPage <= 0 {
		s.ItemsPerPage = DefaultPerPage
	}
	if s.ItemsPerPage > MaxPerPage {
		s.ItemsPerPage = MaxPerPage
	}
	return s
}

// Page is one visible window over a list.
type Page[T any] struct {
	Items        []T  `json:"items"`
	CurrentPage  int  `json:"current_page"`
	ItemsPerPage int  `json:"items_per_page"`
	TotalPages   int  `json:"total_pages"`
	TotalItems   int  `json:"total_items"`
	HasPrev      bool `json:"has_prev"`
	HasNext      bool `json:"has_next"`
}

// Slice returns the page of items selected by s. A current page beyond the
// last page yields an empty page; it is not clamped.
func Slice[T any](items []T, s State) Page[T] {
	s = s.normalize()

	total := len(items)
	totalPages := (total + s.ItemsPerPage - 1) / s.ItemsPerPage

	// Pages past the end are empty. Checking the page number before
	// multiplying keeps huge page numbers from overflowing the offset.
	start, end := total, total
	if s.CurrentPage <= totalPages {
		start = (s.CurrentPage - 1) * s.ItemsPerPage
		end = min(start+s.ItemsPerPage, total)
	}

	page := make([]T, end-start)
	copy(page, items[start:end])

	return Page[T]{
		Items:        page,
		CurrentPage:  s.CurrentPage,
		ItemsPerPage: s.ItemsPerPage,
		TotalPages:   totalPages,
		TotalItems:   total,
		HasPrev:      s.CurrentPage > 1,
		HasNext:      s.CurrentPage < totalPages,
	}
}

// Map converts the items of a page, keeping its metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, len(p.Items))
	for i, it := range p.Items {
		items[i] = fn(it)
	}
	return Page[U]{
		Items:        items,
		CurrentPage:  p.CurrentPage,
		ItemsPerPage: p.ItemsPerPage,
		TotalPages:   p.TotalPages,
		TotalItems:   p.TotalItems,
		HasPrev:      p.HasPrev,
		HasNext:      p.HasNext,
	}
}
