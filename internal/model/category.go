// Package model defines the types that flow through the feed engine.
//
// Every value here is plain data. Items are created by source adapters and
// never mutated afterwards; snapshots are copied before they leave the feed
// store, so holders may keep them without synchronization.
package model

import (
	"fmt"
	"strings"
)

// Category identifies a feed. The concrete categories map onto provider
// routes; All is a composite view assembled from several of them.
type Category string

const (
	CategoryCrypto     Category = "Crypto"
	CategoryTradFi     Category = "TradFi"
	CategoryDeFi       Category = "DeFi"
	CategoryPolitics   Category = "Politics"
	CategoryTechnology Category = "Technology"
	CategorySports     Category = "Sports"
	CategoryWorld      Category = "World"

	// CategoryAll is the composite pseudo-category.
	CategoryAll Category = "ALL"
)

// Categories returns the concrete categories in display order.
func Categories() []Category {
	return []Category{
		CategoryCrypto,
		CategoryTradFi,
		CategoryDeFi,
		CategoryPolitics,
		CategoryTechnology,
		CategorySports,
		CategoryWorld,
	}
}

// AllLegs are the categories an All refresh fans out to, in merge order.
func AllLegs() []Category {
	return []Category{CategoryCrypto, CategoryTechnology, CategoryWorld}
}

// Tabs is the category bar shown by display surfaces.
func Tabs() []Category {
	return []Category{
		CategoryAll,
		CategoryCrypto,
		CategoryTradFi,
		CategoryDeFi,
		CategoryTechnology,
		CategoryPolitics,
	}
}

// Composite reports whether c is the All view.
func (c Category) Composite() bool {
	return c == CategoryAll
}

// Label returns the short uppercase tab label ("TECH" for Technology).
func (c Category) Label() string {
	if c == CategoryTechnology {
		return "TECH"
	}
	return strings.ToUpper(string(c))
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory accepts display names and tab labels, case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(CategoryAll)) {
		return CategoryAll, nil
	}
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, c.Label()) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}
