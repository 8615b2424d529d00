// Package catalog holds the merchant catalog data model and the pure helpers
// built on it: category normalization and grouping, display ordering,
// social handle cleanup, currency formatting and JSON import.
package catalog
