package filter

import (
	"net/url"
	"strings"

	"github.com/example/ec-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

// ParseQuery folds URL query parameters into a State using the setters.
// Unparseable values are ignored and leave the default in place.
func ParseQuery(values url.Values) State {
	state := DefaultState()

	if q := values.Get("q"); q != "" {
		state = state.SetSearchTerm(q)
	}

	for _, axis := range catalog.Axes {
		if ids := listParam(values[string(axis)]); len(ids) > 0 {
			state = state.SetAxis(axis, ids...)
		}
	}

	minPrice := decimal.Zero
	if v, err := decimal.NewFromString(values.Get("minPrice")); err == nil && !v.IsNegative() {
		minPrice = v
	}
	var maxPrice decimal.NullDecimal
	if v, err := decimal.NewFromString(values.Get("maxPrice")); err == nil {
		maxPrice = decimal.NewNullDecimal(v)
	}
	state = state.SetPriceRange(minPrice, maxPrice)

	switch f := StockFilter(values.Get("stock")); f {
	case StockInStock, StockOutOfStock, StockAll:
		state = state.SetStockFilter(f)
	}

	switch k := SortKey(values.Get("sort")); k {
	case SortPriceAsc, SortPriceDesc, SortNameAsc, SortFeatured:
		state = state.SetSortBy(k)
	}

	return state
}

// listParam accepts both repeated keys and comma separated values
func listParam(raw []string) []string {
	var ids []string
	for _, v := range raw {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
