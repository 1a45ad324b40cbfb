// Package catalog holds the static category → letter type → subtype table and
// the per-subtype field requirement policy.
package catalog

import (
	"sort"
)

// Channel selects the backend endpoints used to render and issue a document.
type Channel string

const (
	ChannelCode        Channel = "code"
	ChannelClient      Channel = "client"
	ChannelCertificate Channel = "certificate"
)

// Category is one selectable top-level grouping.
type Category struct {
	Name        string
	Channel     Channel
	LetterTypes map[string][]string
}

// Catalog is an immutable lookup over categories.
type Catalog struct {
	categories map[string]Category
	order      []string
}

// New builds a catalog from the given categories. The input is copied.
func New(categories []Category) *Catalog {
	c := &Catalog{categories: make(map[string]Category, len(categories))}
	for _, cat := range categories {
		types := make(map[string][]string, len(cat.LetterTypes))
		for lt, subs := range cat.LetterTypes {
			types[lt] = append([]string(nil), subs...)
		}
		cat.LetterTypes = types
		c.categories[cat.Name] = cat
		c.order = append(c.order, cat.Name)
	}
	return c
}

// Default returns the catalog shipped with the portal.
func Default() *Catalog {
	return defaultCatalog
}

// Categories returns category names in declaration order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.order...)
}

// Has reports whether category is known.
func (c *Catalog) Has(category string) bool {
	_, ok := c.categories[category]
	return ok
}

// Channel returns the issuance channel for category. Unknown categories
// fall back to code letters.
func (c *Catalog) Channel(category string) Channel {
	if cat, ok := c.categories[category]; ok && cat.Channel != "" {
		return cat.Channel
	}
	return ChannelCode
}

// LetterTypes returns the letter types for category sorted alphabetically.
// An unknown category yields an empty slice.
func (c *Catalog) LetterTypes(category string) []string {
	cat, ok := c.categories[category]
	if !ok {
		return []string{}
	}
	types := make([]string, 0, len(cat.LetterTypes))
	for lt := range cat.LetterTypes {
		types = append(types, lt)
	}
	sort.Strings(types)
	return types
}

// Subtypes returns the ordered subtypes of letterType, or an empty slice when
// the type has none or the pair is unknown.
func (c *Catalog) Subtypes(category, letterType string) []string {
	cat, ok := c.categories[category]
	if !ok {
		return []string{}
	}
	subs, ok := cat.LetterTypes[letterType]
	if !ok {
		return []string{}
	}
	return append([]string{}, subs...)
}

// HasSubtypes reports whether letterType in category has at least one subtype.
func (c *Catalog) HasSubtypes(category, letterType string) bool {
	cat, ok := c.categories[category]
	if !ok {
		return false
	}
	return len(cat.LetterTypes[letterType]) > 0
}

// HasLetterType reports whether letterType is offered for category.
func (c *Catalog) HasLetterType(category, letterType string) bool {
	cat, ok := c.categories[category]
	if !ok {
		return false
	}
	_, ok = cat.LetterTypes[letterType]
	return ok
}

// ValidSubtype reports whether course is a selectable subtype of letterType,
// or equals letterType when the type has no subtypes.
func (c *Catalog) ValidSubtype(category, letterType, course string) bool {
	if !c.HasLetterType(category, letterType) {
		return false
	}
	subs := c.categories[category].LetterTypes[letterType]
	if len(subs) == 0 {
		return course == letterType
	}
	for _, s := range subs {
		if s == course {
			return true
		}
	}
	return false
}

// Labels returns every letter-type and subtype label that can end up in the
// course field, without duplicates.
func (c *Catalog) Labels() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range c.order {
		for lt, subs := range c.categories[name].LetterTypes {
			labels := subs
			if len(subs) == 0 {
				labels = []string{lt}
			}
			for _, l := range labels {
				if !seen[l] {
					seen[l] = true
					out = append(out, l)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}
