package analytics

import (
	"sort"

	"retail-dashboard/internal/models"

	"github.com/shopspring/decimal"
)

// ComputeCustomerAggregates groups merged rows by customer. Demographics come
// from the first row seen for each customer.
func ComputeCustomerAggregates(rows []models.MergedRow) []models.CustomerAggregate {
	index := make(map[int64]int)
	aggs := make([]models.CustomerAggregate, 0)

	for _, r := range rows {
		i, ok := index[r.CustomerID]
		if !ok {
			i = len(aggs)
			index[r.CustomerID] = i
			aggs = append(aggs, models.CustomerAggregate{
				CustomerID: r.CustomerID,
				TotalSpent: decimal.Zero,
				Age:        r.Age,
				Gender:     r.Gender,
				Location:   r.Location,
			})
		}
		aggs[i].TotalOrders++
		aggs[i].TotalSpent = aggs[i].TotalSpent.Add(r.LineRevenue())
	}

	sort.Slice(aggs, func(i, j int) bool { return aggs[i].CustomerID < aggs[j].CustomerID })
	return aggs
}

// Classify maps a transaction count to its frequency segment
func Classify(orders int) string {
	switch {
	case orders == 0:
		return models.SegmentInactive
	case orders <= 5:
		return models.SegmentLow
	case orders <= 7:
		return models.SegmentMedium
	default:
		return models.SegmentHigh
	}
}

// SegmentCustomers classifies every customer found in the raw sales table
func SegmentCustomers(sales []models.Sale) []models.CustomerSegment {
	counts := make(map[int64]int)
	for _, s := range sales {
		counts[s.CustomerID]++
	}

	segments := make([]models.CustomerSegment, 0, len(counts))
	for id, n := range counts {
		segments = append(segments, models.CustomerSegment{
			CustomerID:  id,
			TotalOrders: n,
			Segment:     Classify(n),
		})
	}

	sort.Slice(segments, func(i, j int) bool { return segments[i].CustomerID < segments[j].CustomerID })
	return segments
}

// SegmentCounts counts customers per segment, largest first.
// Segments without customers are omitted.
func SegmentCounts(segments []models.CustomerSegment) []models.SegmentCount {
	byName := make(map[string]int)
	for _, s := range segments {
		byName[s.Segment]++
	}

	counts := make([]models.SegmentCount, 0, len(byName))
	for _, name := range models.Segments {
		if n := byName[name]; n > 0 {
			counts = append(counts, models.SegmentCount{Segment: name, Count: n})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

type customerActivity struct {
	dates  map[string]struct{}
	orders int
}

func activityByCustomer(sales []models.Sale) (map[int64]*customerActivity, []int64) {
	activity := make(map[int64]*customerActivity)
	for _, s := range sales {
		a, ok := activity[s.CustomerID]
		if !ok {
			a = &customerActivity{dates: make(map[string]struct{})}
			activity[s.CustomerID] = a
		}
		a.dates[s.TransactionDate.Format("2006-01-02")] = struct{}{}
		a.orders++
	}

	ids := make([]int64, 0, len(activity))
	for id := range activity {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return activity, ids
}

// RepeatCustomers returns customers who bought on more than one calendar date
func RepeatCustomers(sales []models.Sale) []models.RepeatCustomer {
	activity, ids := activityByCustomer(sales)

	repeat := make([]models.RepeatCustomer, 0)
	for _, id := range ids {
		if days := len(activity[id].dates); days > 1 {
			repeat = append(repeat, models.RepeatCustomer{CustomerID: id, ActiveDays: days})
		}
	}
	return repeat
}

// LoyaltySeries pairs active days with transaction count for every customer
func LoyaltySeries(sales []models.Sale) []models.LoyaltyPoint {
	activity, ids := activityByCustomer(sales)

	points := make([]models.LoyaltyPoint, 0, len(ids))
	for _, id := range ids {
		a := activity[id]
		points = append(points, models.LoyaltyPoint{
			CustomerID:  id,
			DaysActive:  len(a.dates),
			TotalOrders: a.orders,
		})
	}
	return points
}

// MonthlyRevenueSeries sums sale-time revenue per year-month, oldest first
func MonthlyRevenueSeries(sales []models.Sale) []models.MonthlyRevenue {
	totals := make(map[string]decimal.Decimal)
	for _, s := range sales {
		month := s.TransactionDate.Format("2006-01")
		current, ok := totals[month]
		if !ok {
			current = decimal.Zero
		}
		totals[month] = current.Add(s.LineRevenue())
	}

	series := make([]models.MonthlyRevenue, 0, len(totals))
	for month, revenue := range totals {
		series = append(series, models.MonthlyRevenue{Month: month, Revenue: revenue})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Month < series[j].Month })
	return series
}
