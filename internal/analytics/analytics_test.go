package analytics

import (
	"errors"
	"testing"
	"time"

	"retail-dashboard/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, price(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func fixtureTables() *models.Tables {
	return &models.Tables{
		Inventory: []models.Product{
			{ProductID: 1, ProductName: "Desk Lamp", Category: "Home", Price: price("12.00")},
			{ProductID: 2, ProductName: "Headphones", Category: "Electronics", Price: price("60.00")},
			{ProductID: 3, ProductName: "Notebook", Category: "Stationery", Price: price("3.00")},
		},
		Customers: []models.Customer{
			{CustomerID: 100, Age: 34, Gender: "Female", Location: "Austin"},
			{CustomerID: 200, Age: 51, Gender: "Male", Location: "Denver"},
		},
		Sales: []models.Sale{
			{TransactionID: 1, ProductID: 1, CustomerID: 100, QuantityPurchased: 2, Price: price("10.00"), TransactionDate: day(2024, 3, 5, 9)},
			{TransactionID: 2, ProductID: 2, CustomerID: 100, QuantityPurchased: 1, Price: price("55.50"), TransactionDate: day(2024, 3, 5, 17)},
			{TransactionID: 3, ProductID: 3, CustomerID: 200, QuantityPurchased: 4, Price: price("2.50"), TransactionDate: day(2024, 3, 28, 12)},
			{TransactionID: 4, ProductID: 2, CustomerID: 200, QuantityPurchased: 1, Price: price("58.00"), TransactionDate: day(2024, 4, 2, 8)},
			// product 99 does not exist
			{TransactionID: 5, ProductID: 99, CustomerID: 300, QuantityPurchased: 7, Price: price("1.00"), TransactionDate: day(2024, 4, 3, 8)},
		},
	}
}

func TestMergeDropsUnmatchedSales(t *testing.T) {
	merged := Merge(fixtureTables())

	require.Len(t, merged, 4)
	for _, r := range merged {
		assert.NotEqual(t, int64(5), r.TransactionID)
	}

	first := merged[0]
	assert.Equal(t, "Desk Lamp", first.ProductName)
	assert.Equal(t, "Home", first.Category)
	assert.Equal(t, "Austin", first.Location)
	assertDecimal(t, "10.00", first.SalePrice)
	assertDecimal(t, "12.00", first.ListPrice)
}

func TestMergeDropsSaleWithUnknownCustomer(t *testing.T) {
	tables := fixtureTables()
	tables.Sales = append(tables.Sales, models.Sale{
		TransactionID: 6, ProductID: 1, CustomerID: 999, QuantityPurchased: 1,
		Price: price("1"), TransactionDate: day(2024, 5, 1, 0),
	})

	merged := Merge(tables)
	assert.Len(t, merged, 4)
}

func TestComputeKPIs(t *testing.T) {
	merged := Merge(fixtureTables())

	kpis := ComputeKPIs(FilterByCategory(merged, []string{"Home", "Electronics", "Stationery"}))
	assertDecimal(t, "143.50", kpis.TotalRevenue)
	assert.Equal(t, 4, kpis.TotalOrders)
	assert.Equal(t, 2, kpis.TotalCustomers)

	kpis = ComputeKPIs(FilterByCategory(merged, []string{"Electronics"}))
	assertDecimal(t, "113.50", kpis.TotalRevenue)
	assert.Equal(t, 2, kpis.TotalOrders)
	assert.Equal(t, 2, kpis.TotalCustomers)
}

func TestComputeKPIsEmptyFilter(t *testing.T) {
	merged := Merge(fixtureTables())

	kpis := ComputeKPIs(FilterByCategory(merged, nil))
	assert.True(t, kpis.TotalRevenue.IsZero())
	assert.Equal(t, 0, kpis.TotalOrders)
	assert.Equal(t, 0, kpis.TotalCustomers)
}

func TestTotalOrdersCountsDistinctTransactions(t *testing.T) {
	rows := []models.MergedRow{
		{TransactionID: 1, CustomerID: 1, QuantityPurchased: 1, SalePrice: price("1"), Category: "A"},
		{TransactionID: 1, CustomerID: 1, QuantityPurchased: 2, SalePrice: price("1"), Category: "A"},
		{TransactionID: 2, CustomerID: 2, QuantityPurchased: 1, SalePrice: price("1"), Category: "B"},
	}

	assert.Equal(t, 2, ComputeKPIs(FilterByCategory(rows, []string{"A", "B"})).TotalOrders)
	assert.Equal(t, 1, ComputeKPIs(FilterByCategory(rows, []string{"A"})).TotalOrders)
	assert.Equal(t, 0, ComputeKPIs(FilterByCategory(rows, []string{})).TotalOrders)
}

func TestProductPerformanceOrdering(t *testing.T) {
	perf := []models.ProductPerformance{
		{ProductName: "A", TotalUnitsSold: 5},
		{ProductName: "B", TotalUnitsSold: 10},
		{ProductName: "C", TotalUnitsSold: 3},
	}

	units := func(p []models.ProductPerformance) []int {
		out := make([]int, len(p))
		for i := range p {
			out[i] = p[i].TotalUnitsSold
		}
		return out
	}

	assert.Equal(t, []int{10, 5, 3}, units(TopProducts(perf, 10)))
	assert.Equal(t, []int{3, 5, 10}, units(BottomProducts(perf, 10)))
	// input untouched
	assert.Equal(t, []int{5, 10, 3}, units(perf))
}

func TestTopProductsStableAndLimited(t *testing.T) {
	perf := []models.ProductPerformance{
		{ProductName: "A", TotalUnitsSold: 4},
		{ProductName: "B", TotalUnitsSold: 4},
		{ProductName: "C", TotalUnitsSold: 9},
		{ProductName: "D", TotalUnitsSold: 1},
	}

	top := TopProducts(perf, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "C", top[0].ProductName)
	assert.Equal(t, "A", top[1].ProductName)
	assert.Equal(t, "B", top[2].ProductName)

	bottom := BottomProducts(perf, 2)
	require.Len(t, bottom, 2)
	assert.Equal(t, "D", bottom[0].ProductName)
	assert.Equal(t, "A", bottom[1].ProductName)
}

func TestComputeProductPerformance(t *testing.T) {
	merged := Merge(fixtureTables())
	perf := ComputeProductPerformance(merged)

	require.Len(t, perf, 3)
	assert.Equal(t, "Desk Lamp", perf[0].ProductName)
	assert.Equal(t, 2, perf[0].TotalUnitsSold)
	assertDecimal(t, "20", perf[0].TotalRevenue)

	assert.Equal(t, "Headphones", perf[1].ProductName)
	assert.Equal(t, 2, perf[1].TotalUnitsSold)
	assertDecimal(t, "113.50", perf[1].TotalRevenue)

	assert.Equal(t, "Notebook", perf[2].ProductName)
	assert.Equal(t, 4, perf[2].TotalUnitsSold)
}

func TestComputeCustomerAggregates(t *testing.T) {
	aggs := ComputeCustomerAggregates(Merge(fixtureTables()))

	require.Len(t, aggs, 2)
	assert.Equal(t, int64(100), aggs[0].CustomerID)
	assert.Equal(t, 2, aggs[0].TotalOrders)
	assertDecimal(t, "75.50", aggs[0].TotalSpent)
	assert.Equal(t, "Female", aggs[0].Gender)
	assert.Equal(t, 34, aggs[0].Age)

	assert.Equal(t, int64(200), aggs[1].CustomerID)
	assert.Equal(t, 2, aggs[1].TotalOrders)
	assertDecimal(t, "68", aggs[1].TotalSpent)
}

func TestClassifyBoundaries(t *testing.T) {
	cases := map[int]string{
		0:  models.SegmentInactive,
		1:  models.SegmentLow,
		5:  models.SegmentLow,
		6:  models.SegmentMedium,
		7:  models.SegmentMedium,
		8:  models.SegmentHigh,
		42: models.SegmentHigh,
	}

	for orders, expected := range cases {
		assert.Equal(t, expected, Classify(orders), "orders=%d", orders)
	}
}

func TestSegmentationUsesRawSales(t *testing.T) {
	tables := fixtureTables()
	segments := SegmentCustomers(tables.Sales)

	require.Len(t, segments, 3)
	assert.Equal(t, int64(300), segments[2].CustomerID)
	assert.Equal(t, 1, segments[2].TotalOrders)
	assert.Equal(t, models.SegmentLow, segments[2].Segment)

	for _, agg := range ComputeCustomerAggregates(Merge(tables)) {
		assert.NotEqual(t, int64(300), agg.CustomerID)
	}
}

func TestSegmentCounts(t *testing.T) {
	segments := []models.CustomerSegment{
		{CustomerID: 1, Segment: models.SegmentHigh},
		{CustomerID: 2, Segment: models.SegmentLow},
		{CustomerID: 3, Segment: models.SegmentLow},
		{CustomerID: 4, Segment: models.SegmentMedium},
	}

	counts := SegmentCounts(segments)
	assert.Equal(t, []models.SegmentCount{
		{Segment: models.SegmentLow, Count: 2},
		{Segment: models.SegmentMedium, Count: 1},
		{Segment: models.SegmentHigh, Count: 1},
	}, counts)
}

func TestRepeatCustomers(t *testing.T) {
	sales := []models.Sale{
		// two purchases on the same calendar date
		{TransactionID: 1, CustomerID: 1, QuantityPurchased: 1, Price: price("1"), TransactionDate: day(2024, 1, 10, 8)},
		{TransactionID: 2, CustomerID: 1, QuantityPurchased: 1, Price: price("1"), TransactionDate: day(2024, 1, 10, 20)},
		// two distinct dates
		{TransactionID: 3, CustomerID: 2, QuantityPurchased: 1, Price: price("1"), TransactionDate: day(2024, 1, 10, 8)},
		{TransactionID: 4, CustomerID: 2, QuantityPurchased: 1, Price: price("1"), TransactionDate: day(2024, 1, 11, 8)},
	}

	repeat := RepeatCustomers(sales)
	assert.Equal(t, []models.RepeatCustomer{{CustomerID: 2, ActiveDays: 2}}, repeat)
}

func TestLoyaltySeries(t *testing.T) {
	points := LoyaltySeries(fixtureTables().Sales)

	assert.Equal(t, []models.LoyaltyPoint{
		{CustomerID: 100, DaysActive: 1, TotalOrders: 2},
		{CustomerID: 200, DaysActive: 2, TotalOrders: 2},
		{CustomerID: 300, DaysActive: 1, TotalOrders: 1},
	}, points)
}

func TestMonthlyRevenueBucketing(t *testing.T) {
	sales := []models.Sale{
		{TransactionID: 1, CustomerID: 1, QuantityPurchased: 2, Price: price("10"), TransactionDate: day(2024, 3, 5, 0)},
		{TransactionID: 2, CustomerID: 2, QuantityPurchased: 1, Price: price("5"), TransactionDate: day(2024, 3, 28, 0)},
	}

	series := MonthlyRevenueSeries(sales)
	require.Len(t, series, 1)
	assert.Equal(t, "2024-03", series[0].Month)
	assertDecimal(t, "25", series[0].Revenue)
}

func TestMonthlyRevenueAscending(t *testing.T) {
	series := MonthlyRevenueSeries(fixtureTables().Sales)

	require.Len(t, series, 2)
	assert.Equal(t, "2024-03", series[0].Month)
	assertDecimal(t, "85.50", series[0].Revenue)
	assert.Equal(t, "2024-04", series[1].Month)
	// includes the sale whose product is missing from inventory
	assertDecimal(t, "65", series[1].Revenue)
}

func TestValidateSales(t *testing.T) {
	assert.NoError(t, ValidateSales(fixtureTables().Sales))

	err := ValidateSales([]models.Sale{{TransactionID: 9, QuantityPurchased: -1, TransactionDate: day(2024, 1, 1, 0)}})
	assert.True(t, errors.Is(err, ErrMalformedRow))

	err = ValidateSales([]models.Sale{{TransactionID: 9, QuantityPurchased: 1}})
	assert.True(t, errors.Is(err, ErrMalformedRow))
}

func TestCategories(t *testing.T) {
	inventory := append(fixtureTables().Inventory, models.Product{ProductID: 4, Category: "Home"})
	assert.Equal(t, []string{"Home", "Electronics", "Stationery"}, Categories(inventory))
}

func TestBuild(t *testing.T) {
	dash, err := Build(fixtureTables(), []string{"Electronics"}, DefaultTopN)
	require.NoError(t, err)

	assert.Equal(t, []string{"Electronics"}, dash.SelectedCategories)
	assert.Equal(t, []string{"Home", "Electronics", "Stationery"}, dash.AvailableCategories)
	assert.Equal(t, 2, dash.KPIs.TotalOrders)
	assert.Equal(t, 2, dash.MergedRows)
	require.Len(t, dash.TopProducts, 1)
	assert.Equal(t, "Headphones", dash.TopProducts[0].ProductName)
	assert.Len(t, dash.Segments, 3)
	assert.Len(t, dash.MonthlyRevenue, 2)
	assert.Equal(t, []models.RepeatCustomer{{CustomerID: 200, ActiveDays: 2}}, dash.RepeatCustomers)
}

func TestBuildEmptySelection(t *testing.T) {
	dash, err := Build(fixtureTables(), []string{}, DefaultTopN)
	require.NoError(t, err)

	assert.True(t, dash.KPIs.TotalRevenue.IsZero())
	assert.Zero(t, dash.KPIs.TotalOrders)
	assert.Zero(t, dash.KPIs.TotalCustomers)
	assert.Empty(t, dash.TopProducts)
	assert.Empty(t, dash.Customers)
	// raw-sales projections are unaffected by the selection
	assert.Len(t, dash.Segments, 3)
}

func TestBuildEmptyJoin(t *testing.T) {
	tables := fixtureTables()
	tables.Customers = nil

	_, err := Build(tables, []string{"Home"}, DefaultTopN)
	assert.ErrorIs(t, err, ErrEmptyJoin)
}

func TestBuildMalformedRow(t *testing.T) {
	tables := fixtureTables()
	tables.Sales[1].QuantityPurchased = -3

	_, err := Build(tables, []string{"Home"}, DefaultTopN)
	assert.ErrorIs(t, err, ErrMalformedRow)
}
