// Package chart turns dashboard projections into chart configurations the
// browser page draws. It performs no aggregation of its own beyond binning
// and the loyalty trendline.
package chart

import (
	"math"
	"sort"
	"strconv"

	"retail-dashboard/internal/models"
)

// Chart types understood by the page
const (
	TypeBar       = "bar"
	TypeLine      = "line"
	TypeScatter   = "scatter"
	TypeHistogram = "histogram"
)

var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// MaxHistogramBins caps the number of bins of the active-days histogram
const MaxHistogramBins = 20

// Config describes one chart
type Config struct {
	ChartType  string   `json:"chartType"`
	Title      string   `json:"title"`
	XAxis      string   `json:"xAxis"`
	YAxis      string   `json:"yAxis"`
	Series     []Series `json:"series"`
	Colors     []string `json:"colors"`
	ShowLegend bool     `json:"showLegend"`
}

// Series is a named list of points. Kind overrides the chart type for
// overlays such as a trendline.
type Series struct {
	Name string  `json:"name"`
	Kind string  `json:"kind,omitempty"`
	Data []Point `json:"data"`
}

// Point is a labelled value for bar/line charts or an (X, Y) pair for scatters
type Point struct {
	Label string  `json:"label,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Hover string  `json:"hover,omitempty"`
}

// Charts holds every chart of the dashboard page
type Charts struct {
	TopProducts    *Config `json:"topProducts"`
	BottomProducts *Config `json:"bottomProducts"`
	CustomerSpend  *Config `json:"customerSpend"`
	Segments       *Config `json:"segments"`
	ActiveDays     *Config `json:"activeDays"`
	Loyalty        *Config `json:"loyalty"`
	MonthlyRevenue *Config `json:"monthlyRevenue"`
}

// Build produces every chart for a dashboard
func Build(d *models.Dashboard) *Charts {
	return &Charts{
		TopProducts:    ProductUnits("Top 10 Products by Units Sold", d.TopProducts),
		BottomProducts: ProductUnits("Bottom 10 Products by Units Sold", d.BottomProducts),
		CustomerSpend:  CustomerSpend(d.Customers),
		Segments:       SegmentDistribution(d.SegmentCounts),
		ActiveDays:     ActiveDaysHistogram(d.RepeatCustomers),
		Loyalty:        Loyalty(d.Loyalty),
		MonthlyRevenue: MonthlyRevenue(d.MonthlyRevenue),
	}
}

// ProductUnits is a bar chart of units sold per product
func ProductUnits(title string, perf []models.ProductPerformance) *Config {
	points := make([]Point, 0, len(perf))
	for i, p := range perf {
		points = append(points, Point{Label: p.ProductName, X: float64(i), Y: float64(p.TotalUnitsSold)})
	}

	return &Config{
		ChartType: TypeBar,
		Title:     title,
		XAxis:     "Product",
		YAxis:     "Units Sold",
		Series:    []Series{{Name: "total_units_sold", Data: points}},
		Colors:    assignColors(1),
	}
}

// CustomerSpend scatters total spent against order count, one series per gender
func CustomerSpend(customers []models.CustomerAggregate) *Config {
	byGender := make(map[string][]Point)
	for _, c := range customers {
		byGender[c.Gender] = append(byGender[c.Gender], Point{
			X:     float64(c.TotalOrders),
			Y:     RoundTo2(c.TotalSpent.InexactFloat64()),
			Hover: c.Location,
		})
	}

	genders := make([]string, 0, len(byGender))
	for g := range byGender {
		genders = append(genders, g)
	}
	sort.Strings(genders)

	series := make([]Series, 0, len(genders))
	for _, g := range genders {
		series = append(series, Series{Name: g, Data: byGender[g]})
	}

	return &Config{
		ChartType:  TypeScatter,
		Title:      "Customer Spend vs Order Frequency",
		XAxis:      "Total Orders",
		YAxis:      "Total Spent",
		Series:     series,
		Colors:     assignColors(len(series)),
		ShowLegend: true,
	}
}

// SegmentDistribution is a bar chart of customers per frequency segment
func SegmentDistribution(counts []models.SegmentCount) *Config {
	points := make([]Point, 0, len(counts))
	for i, c := range counts {
		points = append(points, Point{Label: c.Segment, X: float64(i), Y: float64(c.Count)})
	}

	return &Config{
		ChartType: TypeBar,
		Title:     "Customer Segments by Frequency",
		XAxis:     "Segment",
		YAxis:     "Count",
		Series:    []Series{{Name: "Count", Data: points}},
		Colors:    assignColors(len(points)),
	}
}

// ActiveDaysHistogram bins repeat customers by active purchase days
func ActiveDaysHistogram(repeat []models.RepeatCustomer) *Config {
	values := make([]int, len(repeat))
	for i, r := range repeat {
		values[i] = r.ActiveDays
	}

	return &Config{
		ChartType: TypeHistogram,
		Title:     "Distribution of Active Purchase Days",
		XAxis:     "active_days",
		YAxis:     "count",
		Series:    []Series{{Name: "active_days", Data: Histogram(values, MaxHistogramBins)}},
		Colors:    assignColors(1),
	}
}

// Histogram counts integer values into at most maxBins equal-width bins
func Histogram(values []int, maxBins int) []Point {
	if len(values) == 0 || maxBins <= 0 {
		return []Point{}
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	span := hi - lo + 1
	width := (span + maxBins - 1) / maxBins
	bins := (span + width - 1) / width

	counts := make([]int, bins)
	for _, v := range values {
		counts[(v-lo)/width]++
	}

	points := make([]Point, bins)
	for i := range counts {
		start := lo + i*width
		label := strconv.Itoa(start)
		if width > 1 {
			label += "-" + strconv.Itoa(start+width-1)
		}
		points[i] = Point{Label: label, X: float64(start), Y: float64(counts[i])}
	}
	return points
}

// Loyalty scatters days active against orders with an OLS trendline overlay
func Loyalty(points []models.LoyaltyPoint) *Config {
	data := make([]Point, 0, len(points))
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		x, y := float64(p.DaysActive), float64(p.TotalOrders)
		data = append(data, Point{X: x, Y: y, Hover: strconv.FormatInt(p.CustomerID, 10)})
		xs = append(xs, x)
		ys = append(ys, y)
	}

	series := []Series{{Name: "customers", Data: data}}
	if slope, intercept, ok := Trendline(xs, ys); ok {
		lo, hi := minMax(xs)
		series = append(series, Series{
			Name: "OLS trendline",
			Kind: TypeLine,
			Data: []Point{
				{X: lo, Y: RoundTo2(intercept + slope*lo)},
				{X: hi, Y: RoundTo2(intercept + slope*hi)},
			},
		})
	}

	return &Config{
		ChartType:  TypeScatter,
		Title:      "Customer Loyalty: Active Days vs Orders",
		XAxis:      "days_active",
		YAxis:      "total_orders",
		Series:     series,
		Colors:     assignColors(len(series)),
		ShowLegend: true,
	}
}

// Trendline fits y = intercept + slope*x by ordinary least squares.
// ok is false with fewer than two points or no spread in x.
func Trendline(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0, 0, false
	}

	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var cov, varX float64
	for i := range xs {
		dx := xs[i] - meanX
		cov += dx * (ys[i] - meanY)
		varX += dx * dx
	}
	if varX == 0 {
		return 0, 0, false
	}

	slope = cov / varX
	return slope, meanY - slope*meanX, true
}

// MonthlyRevenue is a line chart of revenue per month
func MonthlyRevenue(series []models.MonthlyRevenue) *Config {
	points := make([]Point, 0, len(series))
	for i, m := range series {
		points = append(points, Point{Label: m.Month, X: float64(i), Y: RoundTo2(m.Revenue.InexactFloat64())})
	}

	return &Config{
		ChartType: TypeLine,
		Title:     "Monthly Revenue Trend",
		XAxis:     "month",
		YAxis:     "monthly_revenue",
		Series:    []Series{{Name: "monthly_revenue", Data: points}},
		Colors:    assignColors(1),
	}
}

// RoundTo2 rounds to 2 decimal places
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func minMax(vs []float64) (float64, float64) {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func assignColors(n int) []string {
	colors := make([]string, n)
	for i := range colors {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
