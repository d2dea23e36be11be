package export

import (
	"fmt"
	"io"
	"strings"

	"retail-dashboard/internal/models"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook
const (
	SheetKPIs            = "KPIs"
	SheetTopProducts     = "Top Products"
	SheetBottomProducts  = "Bottom Products"
	SheetCustomers       = "Customers"
	SheetSegments        = "Segments"
	SheetRepeatCustomers = "Repeat Customers"
	SheetLoyalty         = "Loyalty"
	SheetMonthlyRevenue  = "Monthly Revenue"
)

type sheet struct {
	name   string
	header []interface{}
	rows   [][]interface{}
}

// WriteWorkbook writes the dashboard as an xlsx workbook with one sheet per result
func WriteWorkbook(w io.Writer, d *models.Dashboard) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := buildSheets(d)
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", s.name, err)
		}

		if err := writeRows(f, s); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, s sheet) error {
	all := append([][]interface{}{s.header}, s.rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", s.name, i+1, err)
		}
	}
	return nil
}

func buildSheets(d *models.Dashboard) []sheet {
	kpis := sheet{
		name:   SheetKPIs,
		header: []interface{}{"Metric", "Value"},
		rows: [][]interface{}{
			{"Total Revenue", d.KPIs.TotalRevenue.InexactFloat64()},
			{"Total Orders", d.KPIs.TotalOrders},
			{"Unique Customers", d.KPIs.TotalCustomers},
			{"Categories", strings.Join(d.SelectedCategories, ", ")},
		},
	}

	products := func(name string, perf []models.ProductPerformance) sheet {
		s := sheet{name: name, header: []interface{}{"productname", "total_units_sold", "total_revenue"}}
		for _, p := range perf {
			s.rows = append(s.rows, []interface{}{p.ProductName, p.TotalUnitsSold, p.TotalRevenue.InexactFloat64()})
		}
		return s
	}

	customers := sheet{name: SheetCustomers, header: []interface{}{"customerid", "total_orders", "total_spent", "age", "gender", "location"}}
	for _, c := range d.Customers {
		customers.rows = append(customers.rows, []interface{}{c.CustomerID, c.TotalOrders, c.TotalSpent.InexactFloat64(), c.Age, c.Gender, c.Location})
	}

	segments := sheet{name: SheetSegments, header: []interface{}{"customerid", "total_orders", "customer_segment"}}
	for _, s := range d.Segments {
		segments.rows = append(segments.rows, []interface{}{s.CustomerID, s.TotalOrders, s.Segment})
	}

	repeat := sheet{name: SheetRepeatCustomers, header: []interface{}{"customerid", "active_days"}}
	for _, r := range d.RepeatCustomers {
		repeat.rows = append(repeat.rows, []interface{}{r.CustomerID, r.ActiveDays})
	}

	loyalty := sheet{name: SheetLoyalty, header: []interface{}{"customerid", "days_active", "total_orders"}}
	for _, l := range d.Loyalty {
		loyalty.rows = append(loyalty.rows, []interface{}{l.CustomerID, l.DaysActive, l.TotalOrders})
	}

	monthly := sheet{name: SheetMonthlyRevenue, header: []interface{}{"month", "monthly_revenue"}}
	for _, m := range d.MonthlyRevenue {
		monthly.rows = append(monthly.rows, []interface{}{m.Month, m.Revenue.InexactFloat64()})
	}

	return []sheet{
		kpis,
		products(SheetTopProducts, d.TopProducts),
		products(SheetBottomProducts, d.BottomProducts),
		customers,
		segments,
		repeat,
		loyalty,
		monthly,
	}
}
