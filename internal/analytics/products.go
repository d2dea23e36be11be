package analytics

import (
	"sort"

	"retail-dashboard/internal/models"

	"github.com/shopspring/decimal"
)

// ComputeKPIs computes revenue, distinct orders and distinct customers
func ComputeKPIs(rows []models.MergedRow) models.KPIs {
	revenue := decimal.Zero
	orders := make(map[int64]struct{})
	customers := make(map[int64]struct{})

	for _, r := range rows {
		revenue = revenue.Add(r.LineRevenue())
		orders[r.TransactionID] = struct{}{}
		customers[r.CustomerID] = struct{}{}
	}

	return models.KPIs{
		TotalRevenue:   revenue,
		TotalOrders:    len(orders),
		TotalCustomers: len(customers),
	}
}

// ComputeProductPerformance groups rows by product name, ordered by name
func ComputeProductPerformance(rows []models.MergedRow) []models.ProductPerformance {
	index := make(map[string]int)
	perf := make([]models.ProductPerformance, 0)

	for _, r := range rows {
		i, ok := index[r.ProductName]
		if !ok {
			i = len(perf)
			index[r.ProductName] = i
			perf = append(perf, models.ProductPerformance{
				ProductName:  r.ProductName,
				TotalRevenue: decimal.Zero,
			})
		}
		perf[i].TotalUnitsSold += r.QuantityPurchased
		perf[i].TotalRevenue = perf[i].TotalRevenue.Add(r.LineRevenue())
	}

	sort.Slice(perf, func(i, j int) bool { return perf[i].ProductName < perf[j].ProductName })
	return perf
}

// TopProducts returns the n best sellers by units, ties kept in input order
func TopProducts(perf []models.ProductPerformance, n int) []models.ProductPerformance {
	sorted := append([]models.ProductPerformance(nil), perf...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalUnitsSold > sorted[j].TotalUnitsSold
	})
	return head(sorted, n)
}

// BottomProducts returns the n worst sellers by units, ties kept in input order
func BottomProducts(perf []models.ProductPerformance, n int) []models.ProductPerformance {
	sorted := append([]models.ProductPerformance(nil), perf...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalUnitsSold < sorted[j].TotalUnitsSold
	})
	return head(sorted, n)
}

func head(perf []models.ProductPerformance, n int) []models.ProductPerformance {
	if n >= 0 && len(perf) > n {
		return perf[:n]
	}
	return perf
}
