package store

import (
	"context"
	"database/sql"
	"fmt"

	"retail-dashboard/internal/models"
)

const (
	selectSales     = "SELECT transactionid, productid, customerid, quantitypurchased, price, transactiondate FROM sales"
	selectCustomers = "SELECT customerid, age, gender, location FROM customers"
	selectInventory = "SELECT productid, productname, category, price FROM inventory"
)

// LoadSales reads the whole sales table
func (s *Store) LoadSales(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	if err := s.db.SelectContext(ctx, &sales, selectSales); err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	return sales, nil
}

// customerRow tolerates missing demographics; only the id is required
type customerRow struct {
	CustomerID int64          `db:"customerid"`
	Age        sql.NullInt64  `db:"age"`
	Gender     sql.NullString `db:"gender"`
	Location   sql.NullString `db:"location"`
}

// LoadCustomers reads the whole customers table. NULL age, gender or
// location become zero values.
func (s *Store) LoadCustomers(ctx context.Context) ([]models.Customer, error) {
	var rows []customerRow
	if err := s.db.SelectContext(ctx, &rows, selectCustomers); err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	customers := make([]models.Customer, len(rows))
	for i, r := range rows {
		customers[i] = models.Customer{
			CustomerID: r.CustomerID,
			Age:        int(r.Age.Int64),
			Gender:     r.Gender.String,
			Location:   r.Location.String,
		}
	}
	return customers, nil
}

// LoadInventory reads the whole inventory table
func (s *Store) LoadInventory(ctx context.Context) ([]models.Product, error) {
	var inventory []models.Product
	if err := s.db.SelectContext(ctx, &inventory, selectInventory); err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return inventory, nil
}

// LoadTables reads the three source tables. Any failure aborts the load.
func (s *Store) LoadTables(ctx context.Context) (*models.Tables, error) {
	sales, err := s.LoadSales(ctx)
	if err != nil {
		return nil, err
	}

	customers, err := s.LoadCustomers(ctx)
	if err != nil {
		return nil, err
	}

	inventory, err := s.LoadInventory(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Tables{
		Sales:     sales,
		Customers: customers,
		Inventory: inventory,
	}, nil
}
