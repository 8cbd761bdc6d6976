// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"shopdesk/internal/paginate"
)

// Request limits.
const (
	maxQueryLen   = 120
	maxIDLen      = 128
	maxBodyBytes  = 64 << 10
	defaultLimit  = 50
	maxAuditLimit = 200
)

// pageParams holds the optional page and per_page query values.
// Zero means "not given".
type pageParams struct {
	Page    int
	PerPage int
}

// parsePageParams reads page and per_page from the query. It returns a
// message when a value is present but not a positive integer.
func parsePageParams(q url.Values) (pageParams, string) {
	var p pageParams
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, "Page must be a positive number."
		}
		p.Page = n
	}
	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > paginate.MaxPerPage {
			return p, "Items per page must be between 1 and 100."
		}
		p.PerPage = n
	}
	return p, ""
}

// apply updates the list's state in book. A new page size returns the
// list to page 1 before any explicit page is applied.
func (p pageParams) apply(book *paginate.Book, key string) paginate.State {
	if p.PerPage > 0 {
		book.SetPerPage(key, p.PerPage)
	}
	if p.Page > 0 {
		book.SetPage(key, p.Page)
	}
	return book.Get(key)
}

// validateQuery checks the root-list search filter.
func validateQuery(q string) string {
	if utf8.RuneCountInString(q) > maxQueryLen {
		return "Search text is too long (max 120 characters)."
	}
	return ""
}

// validateID checks a category ID taken from the URL.
func validateID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "Category ID is required."
	}
	if len(id) > maxIDLen || strings.ContainsAny(id, "/?#") {
		return "Invalid category ID."
	}
	return ""
}

// parseLimit reads the limit query value for list endpoints.
func parseLimit(q url.Values) (int, string) {
	v := q.Get("limit")
	if v == "" {
		return defaultLimit, ""
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxAuditLimit {
		return 0, "Limit must be between 1 and 200."
	}
	return n, ""
}
