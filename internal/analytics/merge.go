// Package analytics computes the dashboard metrics from the sales, customers
// and inventory tables. Every function is pure: inputs are never modified and
// the same inputs always produce the same outputs.
package analytics

import (
	"errors"
	"fmt"

	"retail-dashboard/internal/models"
)

var (
	// ErrEmptyJoin is returned when no sale matches both a product and a customer
	ErrEmptyJoin = errors.New("merged set is empty")

	// ErrMalformedRow is returned when a sale cannot take part in a computation
	ErrMalformedRow = errors.New("malformed row")
)

// ValidateSales rejects negative quantities and missing timestamps.
// The first offending row aborts the whole run.
func ValidateSales(sales []models.Sale) error {
	for i, s := range sales {
		if s.QuantityPurchased < 0 {
			return fmt.Errorf("%w: sales row %d (transaction %d): negative quantity %d",
				ErrMalformedRow, i, s.TransactionID, s.QuantityPurchased)
		}
		if s.TransactionDate.IsZero() {
			return fmt.Errorf("%w: sales row %d (transaction %d): missing transaction date",
				ErrMalformedRow, i, s.TransactionID)
		}
	}
	return nil
}

// Merge inner-joins sales with inventory on productid, then with customers on
// customerid. Output rows keep the order of the sales table; a sale with no
// matching product or customer is dropped.
func Merge(tables *models.Tables) []models.MergedRow {
	products := make(map[int64][]models.Product, len(tables.Inventory))
	for _, p := range tables.Inventory {
		products[p.ProductID] = append(products[p.ProductID], p)
	}

	customers := make(map[int64][]models.Customer, len(tables.Customers))
	for _, c := range tables.Customers {
		customers[c.CustomerID] = append(customers[c.CustomerID], c)
	}

	merged := make([]models.MergedRow, 0, len(tables.Sales))
	for _, s := range tables.Sales {
		for _, p := range products[s.ProductID] {
			for _, c := range customers[s.CustomerID] {
				merged = append(merged, models.MergedRow{
					TransactionID:     s.TransactionID,
					ProductID:         s.ProductID,
					CustomerID:        s.CustomerID,
					QuantityPurchased: s.QuantityPurchased,
					SalePrice:         s.Price,
					TransactionDate:   s.TransactionDate,
					ProductName:       p.ProductName,
					Category:          p.Category,
					ListPrice:         p.Price,
					Age:               c.Age,
					Gender:            c.Gender,
					Location:          c.Location,
				})
			}
		}
	}

	return merged
}

// FilterByCategory keeps the rows whose category is selected.
// An empty selection matches nothing.
func FilterByCategory(rows []models.MergedRow, categories []string) []models.MergedRow {
	selected := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		selected[c] = struct{}{}
	}

	filtered := make([]models.MergedRow, 0, len(rows))
	for _, r := range rows {
		if _, ok := selected[r.Category]; ok {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Categories returns the distinct inventory categories in first-seen order
func Categories(inventory []models.Product) []string {
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, p := range inventory {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	return categories
}
