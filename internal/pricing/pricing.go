package pricing

import (
	"fmt"

	"github.com/alejolo311/CDZGR/internal/models"
)

// Individual registration prices in COP.
var prices = map[string]int64{
	models.CategoryGravel: 899000,
	models.CategoryPaseo:  600000,
}

var titles = map[string]string{
	models.CategoryGravel: "Gravel Race – Caídos del Zarzo 2026",
	models.CategoryPaseo:  "El Paseo – Caídos del Zarzo 2026",
}

// Price returns the individual price for a category.
func Price(category string) (int64, error) {
	price, ok := prices[category]
	if !ok {
		return 0, fmt.Errorf("unknown category: %s", category)
	}
	return price, nil
}

// Title returns the checkout item title for a category.
func Title(category string) (string, error) {
	title, ok := titles[category]
	if !ok {
		return "", fmt.Errorf("unknown category: %s", category)
	}
	return title, nil
}

// GroupUnitPrice returns the discounted per-participant price for a
// group of n: 5% off from 5 participants, 10% off from 10, floored to
// the nearest 1000 COP.
func GroupUnitPrice(category string, n int) (int64, error) {
	base, err := Price(category)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("group size must be at least 1, got %d", n)
	}
	discounted := base
	switch {
	case n >= 10:
		discounted = base * 90 / 100
	case n >= 5:
		discounted = base * 95 / 100
	}
	return discounted / 1000 * 1000, nil
}

// IsValidCategory reports whether category is one we sell.
func IsValidCategory(category string) bool {
	_, ok := prices[category]
	return ok
}
