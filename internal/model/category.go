package model

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnknownCategory is returned when a category name does not match any
// Lighthouse category.
var ErrUnknownCategory = errors.New("unknown lighthouse category")

// Category identifies a Lighthouse audit category.
// Categories are resolved once from strings at the configuration and API
// boundaries; everything past that point compares Category values only.
type Category int

const (
	// CategoryPerformance measures load speed and runtime performance.
	CategoryPerformance Category = iota

	// CategoryAccessibility measures how usable the page is with assistive technology.
	CategoryAccessibility

	// CategoryBestPractices covers general web development hygiene.
	CategoryBestPractices

	// CategorySEO covers search engine discoverability.
	CategorySEO
)

// AllCategories returns every known category in canonical order.
func AllCategories() []Category {
	return []Category{
		CategoryPerformance,
		CategoryAccessibility,
		CategoryBestPractices,
		CategorySEO,
	}
}

// categoryKeys maps each category to the key used by the PageSpeed API,
// the history file, and the configuration file.
var categoryKeys = map[Category]string{
	CategoryPerformance:   "performance",
	CategoryAccessibility: "accessibility",
	CategoryBestPractices: "best-practices",
	CategorySEO:           "seo",
}

// String returns the canonical key of the category (e.g. "best-practices").
func (c Category) String() string {
	if key, ok := categoryKeys[c]; ok {
		return key
	}
	return "unknown"
}

// Label returns the presentation label of the category.
// Separators become spaces and every word is title-cased,
// so "best-practices" is shown as "Best Practices".
func (c Category) Label() string {
	key, ok := categoryKeys[c]
	if !ok {
		return "Unknown"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(key, "-", " "))
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryKeys[c]
	return ok
}

// ParseCategory resolves a category name.
// Matching ignores case and treats "-", "_", " " and no separator alike,
// so "best-practices", "Best_Practices" and "bestpractices" are equivalent.
func ParseCategory(s string) (Category, error) {
	want := squashCategoryName(s)
	for _, c := range AllCategories() {
		if squashCategoryName(categoryKeys[c]) == want {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// ParseCategories resolves a list of category names, preserving order
// and dropping duplicates.
func ParseCategories(names []string) ([]Category, error) {
	seen := make(map[Category]bool, len(names))
	result := make([]Category, 0, len(names))
	for _, name := range names {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		result = append(result, c)
	}
	return result, nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func squashCategoryName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}
