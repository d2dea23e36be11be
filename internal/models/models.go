package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale represents one purchase event from the sales table
type Sale struct {
	TransactionID     int64           `db:"transactionid" json:"transactionid"`
	ProductID         int64           `db:"productid" json:"productid"`
	CustomerID        int64           `db:"customerid" json:"customerid"`
	QuantityPurchased int             `db:"quantitypurchased" json:"quantitypurchased"`
	Price             decimal.Decimal `db:"price" json:"price"`
	TransactionDate   time.Time       `db:"transactiondate" json:"transactiondate"`
}

// Customer represents a row of the customers table
type Customer struct {
	CustomerID int64  `db:"customerid" json:"customerid"`
	Age        int    `db:"age" json:"age"`
	Gender     string `db:"gender" json:"gender"`
	Location   string `db:"location" json:"location"`
}

// Product represents a row of the inventory table
type Product struct {
	ProductID   int64           `db:"productid" json:"productid"`
	ProductName string          `db:"productname" json:"productname"`
	Category    string          `db:"category" json:"category"`
	Price       decimal.Decimal `db:"price" json:"price"`
}

// Tables holds the three source tables loaded for one run
type Tables struct {
	Sales     []Sale
	Customers []Customer
	Inventory []Product
}

// MergedRow is one sale joined with its product and its customer.
// SalePrice comes from the sales table, ListPrice from inventory.
type MergedRow struct {
	TransactionID     int64           `json:"transactionid"`
	ProductID         int64           `json:"productid"`
	CustomerID        int64           `json:"customerid"`
	QuantityPurchased int             `json:"quantitypurchased"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	TransactionDate   time.Time       `json:"transactiondate"`

	ProductName string          `json:"productname"`
	Category    string          `json:"category"`
	ListPrice   decimal.Decimal `json:"list_price"`

	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Location string `json:"location"`
}

// LineRevenue returns quantity times sale-time price
func (r MergedRow) LineRevenue() decimal.Decimal {
	return r.SalePrice.Mul(decimal.NewFromInt(int64(r.QuantityPurchased)))
}

// LineRevenue returns quantity times sale-time price
func (s Sale) LineRevenue() decimal.Decimal {
	return s.Price.Mul(decimal.NewFromInt(int64(s.QuantityPurchased)))
}
