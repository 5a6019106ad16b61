package filter

import (
	"maps"

	"github.com/example/ec-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

// StockFilter restricts results by availability
type StockFilter string

const (
	StockAll        StockFilter = "all"
	StockInStock    StockFilter = "inStock"
	StockOutOfStock StockFilter = "outOfStock"
)

// SortKey selects the result ordering
type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortPriceAsc  SortKey = "priceAsc"
	SortPriceDesc SortKey = "priceDesc"
	SortNameAsc   SortKey = "nameAsc"
)

// IDSet is a set of entity ids. An empty set places no restriction.
type IDSet map[string]struct{}

// Has reports membership
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// PriceRange is inclusive on both ends. An invalid Max means no upper bound.
type PriceRange struct {
	Min decimal.Decimal     `json:"min"`
	Max decimal.NullDecimal `json:"max"`
}

// Contains reports whether price lies within the range
func (r PriceRange) Contains(price decimal.Decimal) bool {
	if price.LessThan(r.Min) {
		return false
	}
	return !r.Max.Valid || price.LessThanOrEqual(r.Max.Decimal)
}

// State is the filter selection. It is a value: setters return a new State
// and never touch the receiver's maps.
type State struct {
	SearchTerm string                 `json:"searchTerm"`
	Selected   map[catalog.Axis]IDSet `json:"selected"`
	PriceRange PriceRange             `json:"priceRange"`
	Stock      StockFilter            `json:"stockFilter"`
	SortBy     SortKey                `json:"sortBy"`
}

// DefaultState is the reset state: everything passes, featured order
func DefaultState() State {
	return State{
		Selected: map[catalog.Axis]IDSet{},
		Stock:    StockAll,
		SortBy:   SortFeatured,
	}
}

// ClearFilters resets every selection to the defaults
func ClearFilters() State {
	return DefaultState()
}

// SetSearchTerm replaces the search text
func (s State) SetSearchTerm(term string) State {
	s.SearchTerm = term
	return s
}

// ToggleAxis adds id to the axis selection, or removes it if already selected
func (s State) ToggleAxis(axis catalog.Axis, id string) State {
	set := maps.Clone(s.Selected[axis])
	if set == nil {
		set = IDSet{}
	}
	if set.Has(id) {
		delete(set, id)
	} else {
		set[id] = struct{}{}
	}
	return s.withAxis(axis, set)
}

// SetAxis replaces the axis selection with ids
func (s State) SetAxis(axis catalog.Axis, ids ...string) State {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return s.withAxis(axis, set)
}

// SetPriceRange replaces the price bounds
func (s State) SetPriceRange(minPrice decimal.Decimal, maxPrice decimal.NullDecimal) State {
	s.PriceRange = PriceRange{Min: minPrice, Max: maxPrice}
	return s
}

// SetStockFilter replaces the stock filter
func (s State) SetStockFilter(f StockFilter) State {
	s.Stock = f
	return s
}

// SetSortBy replaces the sort key
func (s State) SetSortBy(key SortKey) State {
	s.SortBy = key
	return s
}

func (s State) withAxis(axis catalog.Axis, set IDSet) State {
	selected := make(map[catalog.Axis]IDSet, len(s.Selected)+1)
	maps.Copy(selected, s.Selected)
	if len(set) == 0 {
		delete(selected, axis)
	} else {
		selected[axis] = set
	}
	s.Selected = selected
	return s
}
