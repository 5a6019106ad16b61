package filter

import (
	"net/url"
	"testing"

	"github.com/example/ec-storefront/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ref(id, name string) *catalog.Ref {
	return &catalog.Ref{ID: id, Name: name, IsActive: true}
}

func product(id, name string, price int64, stock int) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     name,
		SKU:      "SKU-" + id,
		Pricing:  catalog.Pricing{SellingPrice: decimal.NewFromInt(price)},
		Stock:    stock,
		IsActive: true,
	}
}

func ids(products []catalog.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func testCatalog() []catalog.Product {
	s10 := product("p1", "Galaxy S10", 450, 4)
	s10.Brand = ref("samsung", "Samsung")
	s10.Model = ref("s10", "S10")
	s10.Color = ref("black", "Black")

	iphone := product("p2", "iPhone 12", 700, 0)
	iphone.Brand = ref("apple", "Apple")
	iphone.Color = ref("white", "White")

	pixel := product("p3", "Pixel 6", 450, 2)
	pixel.Brand = ref("google", "Google")
	pixel.Color = ref("black", "Black")

	hidden := product("p4", "Galaxy Note", 300, 9)
	hidden.Brand = ref("samsung", "Samsung")
	hidden.IsActive = false

	orphan := product("p5", "Unbranded Phone", 100, 1)

	return []catalog.Product{s10, iphone, pixel, hidden, orphan}
}

// ============================================
// Inactive exclusion
// ============================================

func TestFilterAndSort_NeverReturnsInactive(t *testing.T) {
	states := []State{
		DefaultState(),
		DefaultState().SetSearchTerm("galaxy"),
		DefaultState().SetAxis(catalog.AxisBrand, "samsung"),
		DefaultState().SetStockFilter(StockInStock),
		DefaultState().SetSortBy(SortPriceAsc),
		DefaultState().SetSortBy(SortNameAsc),
	}

	for _, state := range states {
		for _, p := range FilterAndSort(testCatalog(), state) {
			assert.True(t, p.IsActive, "product %s", p.ID)
			assert.NotEqual(t, "p4", p.ID)
		}
	}
}

func TestFilterAndSort_DefaultStateIsActiveList(t *testing.T) {
	result := FilterAndSort(testCatalog(), DefaultState())

	assert.Equal(t, []string{"p1", "p2", "p3", "p5"}, ids(result))
}

func TestFilterAndSort_UnboundedPriceRangeRoundTrip(t *testing.T) {
	state := DefaultState().SetPriceRange(decimal.Zero, decimal.NullDecimal{})

	assert.Equal(t, ids(FilterAndSort(testCatalog(), DefaultState())), ids(FilterAndSort(testCatalog(), state)))
}

func TestFilterAndSort_EmptyInput(t *testing.T) {
	result := FilterAndSort(nil, DefaultState().SetSearchTerm("anything"))

	assert.NotNil(t, result)
	assert.Empty(t, result)
}

// ============================================
// Search
// ============================================

func TestFilterAndSort_SearchMatchesBrandName(t *testing.T) {
	for _, term := range []string{"samsung", "SAMSUNG", "SamSung"} {
		result := FilterAndSort(testCatalog(), DefaultState().SetSearchTerm(term))
		assert.Equal(t, []string{"p1"}, ids(result), term)
	}
}

func TestFilterAndSort_SearchFields(t *testing.T) {
	tests := []struct {
		name     string
		term     string
		expected []string
	}{
		{"product name", "pixel", []string{"p3"}},
		{"model name", "s10", []string{"p1"}},
		{"sku", "sku-p2", []string{"p2"}},
		{"partial name", "phone", []string{"p2", "p5"}},
		{"no match", "nokia", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FilterAndSort(testCatalog(), DefaultState().SetSearchTerm(tt.term))
			assert.Equal(t, tt.expected, ids(result))
		})
	}
}

// ============================================
// Axis filters
// ============================================

func TestFilterAndSort_AxisSetMembership(t *testing.T) {
	state := DefaultState().SetAxis(catalog.AxisColor, "black")

	assert.Equal(t, []string{"p1", "p3"}, ids(FilterAndSort(testCatalog(), state)))
}

func TestFilterAndSort_AxesIntersect(t *testing.T) {
	state := DefaultState().
		SetAxis(catalog.AxisColor, "black").
		SetAxis(catalog.AxisBrand, "google", "apple")

	assert.Equal(t, []string{"p3"}, ids(FilterAndSort(testCatalog(), state)))
}

func TestFilterAndSort_MissingRefNeverMatches(t *testing.T) {
	state := DefaultState().SetAxis(catalog.AxisWarranty, "w1")

	assert.Empty(t, FilterAndSort(testCatalog(), state))

	state = DefaultState().SetAxis(catalog.AxisBrand, "")
	assert.Empty(t, FilterAndSort(testCatalog(), state))
}

func TestFilterAndSort_EmptyAxisSetIsInert(t *testing.T) {
	state := DefaultState()
	state.Selected[catalog.AxisBrand] = IDSet{}

	assert.Len(t, FilterAndSort(testCatalog(), state), 4)
}

// ============================================
// Price and stock
// ============================================

func TestFilterAndSort_PriceRangeInclusive(t *testing.T) {
	state := DefaultState().SetPriceRange(decimal.NewFromInt(450), decimal.NewNullDecimal(decimal.NewFromInt(700)))

	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(FilterAndSort(testCatalog(), state)))
}

func TestFilterAndSort_MissingPriceIsZero(t *testing.T) {
	free := catalog.Product{ID: "free", Name: "Case", IsActive: true, Stock: 1}

	inRange := DefaultState().SetPriceRange(decimal.Zero, decimal.NewNullDecimal(decimal.NewFromInt(10)))
	assert.Equal(t, []string{"free"}, ids(FilterAndSort([]catalog.Product{free}, inRange)))

	aboveZero := DefaultState().SetPriceRange(decimal.NewFromInt(1), decimal.NullDecimal{})
	assert.Empty(t, FilterAndSort([]catalog.Product{free}, aboveZero))
}

func TestFilterAndSort_StockFilter(t *testing.T) {
	tests := []struct {
		filter   StockFilter
		expected []string
	}{
		{StockAll, []string{"p1", "p2", "p3", "p5"}},
		{StockInStock, []string{"p1", "p3", "p5"}},
		{StockOutOfStock, []string{"p2"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			result := FilterAndSort(testCatalog(), DefaultState().SetStockFilter(tt.filter))
			assert.Equal(t, tt.expected, ids(result))
		})
	}
}

func TestFilterAndSort_MonotonicNarrowing(t *testing.T) {
	base := DefaultState()
	baseLen := len(FilterAndSort(testCatalog(), base))

	narrower := []State{
		base.SetAxis(catalog.AxisBrand, "samsung"),
		base.SetPriceRange(decimal.NewFromInt(200), decimal.NewNullDecimal(decimal.NewFromInt(500))),
		base.SetStockFilter(StockInStock),
		base.SetStockFilter(StockOutOfStock),
		base.SetSearchTerm("galaxy"),
	}

	for _, state := range narrower {
		assert.LessOrEqual(t, len(FilterAndSort(testCatalog(), state)), baseLen)
	}

	twoAxes := base.SetAxis(catalog.AxisColor, "black")
	threeAxes := twoAxes.SetAxis(catalog.AxisBrand, "google")
	assert.LessOrEqual(t, len(FilterAndSort(testCatalog(), threeAxes)), len(FilterAndSort(testCatalog(), twoAxes)))
}

// ============================================
// Sorting
// ============================================

func TestFilterAndSort_FeaturedPreservesOrder(t *testing.T) {
	state := DefaultState().SetStockFilter(StockInStock)

	assert.Equal(t, []string{"p1", "p3", "p5"}, ids(FilterAndSort(testCatalog(), state)))
}

func TestFilterAndSort_PriceAscStable(t *testing.T) {
	result := FilterAndSort(testCatalog(), DefaultState().SetSortBy(SortPriceAsc))

	// p1 and p3 tie at 450 and keep their input order.
	assert.Equal(t, []string{"p5", "p1", "p3", "p2"}, ids(result))
}

func TestFilterAndSort_PriceDescStable(t *testing.T) {
	result := FilterAndSort(testCatalog(), DefaultState().SetSortBy(SortPriceDesc))

	assert.Equal(t, []string{"p2", "p1", "p3", "p5"}, ids(result))
}

func TestFilterAndSort_NameAscLocaleAware(t *testing.T) {
	products := []catalog.Product{
		product("a", "galaxy", 1, 1),
		product("b", "Pixel", 1, 1),
		product("c", "iPhone", 1, 1),
		product("d", "Éclair", 1, 1),
	}

	result := FilterAndSort(products, DefaultState().SetSortBy(SortNameAsc))

	assert.Equal(t, []string{"d", "a", "c", "b"}, ids(result))
}

func TestFilterAndSort_DoesNotMutateInput(t *testing.T) {
	input := testCatalog()
	before := ids(input)

	FilterAndSort(input, DefaultState().SetSortBy(SortPriceDesc))

	assert.Equal(t, before, ids(input))
}

// ============================================
// State setters
// ============================================

func TestState_ToggleAxis(t *testing.T) {
	s0 := DefaultState()
	s1 := s0.ToggleAxis(catalog.AxisBrand, "samsung")
	s2 := s1.ToggleAxis(catalog.AxisBrand, "apple")
	s3 := s2.ToggleAxis(catalog.AxisBrand, "samsung")

	assert.Empty(t, s0.Selected)
	assert.True(t, s1.Selected[catalog.AxisBrand].Has("samsung"))
	assert.Len(t, s2.Selected[catalog.AxisBrand], 2)
	assert.False(t, s3.Selected[catalog.AxisBrand].Has("samsung"))
	assert.True(t, s3.Selected[catalog.AxisBrand].Has("apple"))
	// earlier states are untouched
	assert.Len(t, s2.Selected[catalog.AxisBrand], 2)

	s4 := s3.ToggleAxis(catalog.AxisBrand, "apple")
	_, present := s4.Selected[catalog.AxisBrand]
	assert.False(t, present)
}

func TestClearFilters(t *testing.T) {
	state := DefaultState().
		SetSearchTerm("pixel").
		SetAxis(catalog.AxisColor, "black").
		SetStockFilter(StockOutOfStock).
		SetSortBy(SortNameAsc)

	assert.NotEqual(t, DefaultState(), state)
	assert.Equal(t, DefaultState(), ClearFilters())
}

func TestParseQuery(t *testing.T) {
	values := url.Values{
		"q":        {"galaxy"},
		"brand":    {"samsung,apple"},
		"color":    {"black", "white"},
		"minPrice": {"100"},
		"maxPrice": {"600.50"},
		"stock":    {"inStock"},
		"sort":     {"priceDesc"},
	}

	state := ParseQuery(values)

	assert.Equal(t, "galaxy", state.SearchTerm)
	assert.Len(t, state.Selected[catalog.AxisBrand], 2)
	assert.True(t, state.Selected[catalog.AxisColor].Has("white"))
	assert.True(t, state.PriceRange.Min.Equal(decimal.NewFromInt(100)))
	assert.True(t, state.PriceRange.Max.Valid)
	assert.True(t, state.PriceRange.Max.Decimal.Equal(decimal.RequireFromString("600.50")))
	assert.Equal(t, StockInStock, state.Stock)
	assert.Equal(t, SortPriceDesc, state.SortBy)
}

func TestParseQuery_InvalidValuesFallBack(t *testing.T) {
	values := url.Values{
		"minPrice": {"cheap"},
		"maxPrice": {"expensive"},
		"stock":    {"maybe"},
		"sort":     {"random"},
	}

	state := ParseQuery(values)

	assert.True(t, state.PriceRange.Min.IsZero())
	assert.False(t, state.PriceRange.Max.Valid)
	assert.Equal(t, StockAll, state.Stock)
	assert.Equal(t, SortFeatured, state.SortBy)
}
