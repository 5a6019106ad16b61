// Package filter computes the customer-facing view of the catalog.
package filter

import (
	"slices"
	"strings"

	"github.com/example/ec-storefront/internal/catalog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortLanguage drives the nameAsc collation
var SortLanguage = language.English

// FilterAndSort returns the active products matching state, ordered by state.SortBy.
// The input slice is not modified.
func FilterAndSort(products []catalog.Product, state State) []catalog.Product {
	term := strings.ToLower(state.SearchTerm)

	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if !p.IsActive {
			continue
		}
		if !passesStock(p, state.Stock) {
			continue
		}
		if !state.PriceRange.Contains(p.SellingPrice()) {
			continue
		}
		if !passesAxes(p, state.Selected) {
			continue
		}
		if term != "" && !matchesSearch(p, term) {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, state.SortBy)
	return out
}

func matchesSearch(p catalog.Product, term string) bool {
	for _, field := range []string{p.Name, p.BrandName(), p.ModelName(), p.SKU} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func passesAxes(p catalog.Product, selected map[catalog.Axis]IDSet) bool {
	for axis, set := range selected {
		if len(set) == 0 {
			continue
		}
		ref := p.Ref(axis)
		if ref == nil || !set.Has(ref.ID) {
			return false
		}
	}
	return true
}

func passesStock(p catalog.Product, f StockFilter) bool {
	switch f {
	case StockInStock:
		return p.Stock > 0
	case StockOutOfStock:
		return p.Stock == 0
	default:
		return true
	}
}

func sortProducts(products []catalog.Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b catalog.Product) int {
			return a.SellingPrice().Cmp(b.SellingPrice())
		})
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b catalog.Product) int {
			return b.SellingPrice().Cmp(a.SellingPrice())
		})
	case SortNameAsc:
		// Collators are not safe for concurrent use.
		c := collate.New(SortLanguage)
		slices.SortStableFunc(products, func(a, b catalog.Product) int {
			return c.CompareString(a.Name, b.Name)
		})
	}
}
