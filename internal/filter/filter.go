package filter

import (
	"cakemap/catalog/internal/domain"
)

// Apply keeps the shops carrying at least one active category. An empty set
// keeps every shop. Order is preserved.
func Apply(active domain.CategorySet, shops []domain.Shop) []domain.Shop {
	if active.Empty() {
		return shops
	}

	out := make([]domain.Shop, 0, len(shops))
	for _, shop := range shops {
		if active.Intersects(shop.Categories) {
			out = append(out, shop)
		}
	}
	return out
}

// HasChanged reports whether current is a new non-empty selection.
func HasChanged(current, baseline domain.CategorySet) bool {
	if current.Empty() {
		return false
	}
	return !current.Equal(baseline)
}
