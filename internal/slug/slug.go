// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug builds storefront internal links from category names.
package slug

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// LinkPrefix is the storefront path categories are served under.
	LinkPrefix = "/category/"

	// MaxLength caps a generated slug. Longer names are cut at a word
	// boundary when one is close enough.
	MaxLength = 60
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace collapses runs of spaces, tabs and underscores.
	whitespace = regexp.MustCompile(`[\s_]+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// latin folds common accented letters found in product category names.
var latin = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a", "å", "a", "ă", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o", "ø", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n", "ș", "s", "ş", "s", "ț", "t", "ţ", "t",
	"ß", "ss", "æ", "ae", "œ", "oe",
	"&", " and ",
)

// Generate turns a category name into a slug.
// Example: "Men's Shoes & Boots" → "mens-shoes-and-boots"
func Generate(name string) string {
	result := latin.Replace(strings.ToLower(strings.TrimSpace(name)))
	result = whitespace.ReplaceAllString(result, " ")
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return truncate(result)
}

// truncate cuts s to MaxLength, preferring the last hyphen in the second
// half so words stay whole.
func truncate(s string) string {
	if len(s) <= MaxLength {
		return s
	}
	s = s[:MaxLength]
	if i := strings.LastIndexByte(s, '-'); i > MaxLength/2 {
		s = s[:i]
	}
	return strings.Trim(s, "-")
}

// Link returns the internal link for a category name, or "" when the name
// has no usable characters.
func Link(name string) string {
	s := Generate(name)
	if s == "" {
		return ""
	}
	return LinkPrefix + s
}

// UniqueLink returns Link(name), suffixed -2, -3... until taken reports
// the link as free. It returns "" when the name has no usable characters.
func UniqueLink(name string, taken func(link string) bool) string {
	base := Link(name)
	if base == "" || !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		link := base + "-" + strconv.Itoa(i)
		if !taken(link) {
			return link
		}
	}
}
