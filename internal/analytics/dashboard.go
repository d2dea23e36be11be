package analytics

import (
	"time"

	"retail-dashboard/internal/models"
)

// DefaultTopN is how many products the top and bottom lists hold
const DefaultTopN = 10

// Build computes the whole dashboard for one category selection.
// Merged-set projections honor the selection; segmentation, activity,
// loyalty and monthly revenue read the raw sales table.
func Build(tables *models.Tables, categories []string, topN int) (*models.Dashboard, error) {
	if err := ValidateSales(tables.Sales); err != nil {
		return nil, err
	}

	merged := Merge(tables)
	if len(merged) == 0 {
		return nil, ErrEmptyJoin
	}

	filtered := FilterByCategory(merged, categories)
	perf := ComputeProductPerformance(filtered)
	segments := SegmentCustomers(tables.Sales)

	return &models.Dashboard{
		SelectedCategories:  append([]string{}, categories...),
		AvailableCategories: Categories(tables.Inventory),
		KPIs:                ComputeKPIs(filtered),
		ProductPerformance:  perf,
		TopProducts:         TopProducts(perf, topN),
		BottomProducts:      BottomProducts(perf, topN),
		Customers:           ComputeCustomerAggregates(filtered),
		Segments:            segments,
		SegmentCounts:       SegmentCounts(segments),
		RepeatCustomers:     RepeatCustomers(tables.Sales),
		Loyalty:             LoyaltySeries(tables.Sales),
		MonthlyRevenue:      MonthlyRevenueSeries(tables.Sales),
		MergedRows:          len(filtered),
		ComputedAt:          time.Now().UTC(),
	}, nil
}
