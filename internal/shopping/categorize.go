// Package shopping holds the rules for shared shopping list entries.
package shopping

import (
	"strings"
	"unicode"
)

// DefaultCategory is used when no rule matches an item name.
const DefaultCategory = "Other"

// Categories lists every category in display order.
var Categories = []string{
	"Produce",
	"Dairy",
	"Meat & Seafood",
	"Bakery",
	"Pantry",
	"Frozen",
	"Beverages",
	"Snacks",
	"Household",
	"Personal Care",
	DefaultCategory,
}

type rule struct {
	keyword  string
	category string
}

// rules are checked in order, so multi-word and more specific keywords
// come before the single words they contain.
var rules = []rule{
	{"ice cream", "Frozen"},
	{"frozen", "Frozen"},
	{"peanut butter", "Pantry"},
	{"olive oil", "Pantry"},
	{"soy sauce", "Pantry"},
	{"orange juice", "Beverages"},
	{"sparkling water", "Beverages"},
	{"paper towel", "Household"},
	{"toilet paper", "Household"},
	{"trash bag", "Household"},
	{"bin bag", "Household"},
	{"dish soap", "Household"},
	{"washing up", "Household"},
	{"body wash", "Personal Care"},
	{"granola bar", "Snacks"},
	{"green bean", "Produce"},

	{"milk", "Dairy"},
	{"cheese", "Dairy"},
	{"yogurt", "Dairy"},
	{"butter", "Dairy"},
	{"cream", "Dairy"},
	{"egg", "Dairy"},

	{"chicken", "Meat & Seafood"},
	{"beef", "Meat & Seafood"},
	{"pork", "Meat & Seafood"},
	{"bacon", "Meat & Seafood"},
	{"sausage", "Meat & Seafood"},
	{"mince", "Meat & Seafood"},
	{"salmon", "Meat & Seafood"},
	{"tuna", "Meat & Seafood"},
	{"shrimp", "Meat & Seafood"},
	{"fish", "Meat & Seafood"},

	{"bread", "Bakery"},
	{"bagel", "Bakery"},
	{"baguette", "Bakery"},
	{"croissant", "Bakery"},
	{"muffin", "Bakery"},
	{"tortilla", "Bakery"},

	{"apple", "Produce"},
	{"banana", "Produce"},
	{"orange", "Produce"},
	{"lemon", "Produce"},
	{"avocado", "Produce"},
	{"tomato", "Produce"},
	{"potato", "Produce"},
	{"onion", "Produce"},
	{"garlic", "Produce"},
	{"lettuce", "Produce"},
	{"spinach", "Produce"},
	{"carrot", "Produce"},
	{"pepper", "Produce"},
	{"mushroom", "Produce"},
	{"berries", "Produce"},
	{"grape", "Produce"},

	{"rice", "Pantry"},
	{"pasta", "Pantry"},
	{"noodle", "Pantry"},
	{"flour", "Pantry"},
	{"sugar", "Pantry"},
	{"cereal", "Pantry"},
	{"oats", "Pantry"},
	{"sauce", "Pantry"},
	{"beans", "Pantry"},
	{"soup", "Pantry"},
	{"spice", "Pantry"},
	{"oil", "Pantry"},

	{"coffee", "Beverages"},
	{"tea", "Beverages"},
	{"juice", "Beverages"},
	{"soda", "Beverages"},
	{"beer", "Beverages"},
	{"wine", "Beverages"},
	{"water", "Beverages"},

	{"chips", "Snacks"},
	{"crisps", "Snacks"},
	{"cracker", "Snacks"},
	{"cookie", "Snacks"},
	{"biscuit", "Snacks"},
	{"chocolate", "Snacks"},
	{"popcorn", "Snacks"},

	{"detergent", "Household"},
	{"laundry", "Household"},
	{"sponge", "Household"},
	{"foil", "Household"},
	{"battery", "Household"},
	{"batteries", "Household"},
	{"cleaner", "Household"},

	{"shampoo", "Personal Care"},
	{"conditioner", "Personal Care"},
	{"toothpaste", "Personal Care"},
	{"toothbrush", "Personal Care"},
	{"deodorant", "Personal Care"},
	{"razor", "Personal Care"},
	{"tissue", "Personal Care"},
}

// Categorize picks a category for an item name. Matching is case-insensitive
// and falls back to DefaultCategory.
func Categorize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return DefaultCategory
	}
	for _, r := range rules {
		if strings.Contains(n, r.keyword) {
			return r.category
		}
	}
	return DefaultCategory
}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseEntry splits free-form input like "2 milk" or "milk x2" into a name
// and a quantity. Input without a recognisable quantity is returned whole.
func ParseEntry(input string) (name, quantity string) {
	fields := strings.Fields(input)
	if len(fields) < 2 {
		return strings.TrimSpace(input), ""
	}
	if isQuantity(fields[0]) {
		return strings.Join(fields[1:], " "), strings.TrimPrefix(strings.ToLower(fields[0]), "x")
	}
	last := fields[len(fields)-1]
	if isQuantity(last) {
		return strings.Join(fields[:len(fields)-1], " "), strings.TrimPrefix(strings.ToLower(last), "x")
	}
	return strings.Join(fields, " "), ""
}

func isQuantity(s string) bool {
	s = strings.TrimPrefix(strings.ToLower(s), "x")
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
