package api

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"retail-dashboard/internal/analytics"
	"retail-dashboard/internal/chart"
	"retail-dashboard/internal/export"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/service"
	"retail-dashboard/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

//go:embed templates/*.html
var templatesFS embed.FS

// DashboardProvider computes dashboards for a category selection
type DashboardProvider interface {
	GetDashboard(ctx context.Context, q service.Query) (*models.Dashboard, error)
}

// Handler contains HTTP handlers
type Handler struct {
	dashboards DashboardProvider
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(dashboards DashboardProvider) *Handler {
	return &Handler{
		dashboards: dashboards,
		logger:     util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.SetHTMLTemplate(template.Must(
		template.New("").Funcs(template.FuncMap{
			"money":    formatMoney,
			"selected": contains,
		}).ParseFS(templatesFS, "templates/*.html"),
	))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/", h.dashboardPage)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/dashboard", h.getDashboard)
		v1.GET("/dashboard/export", h.exportDashboard)
		v1.GET("/kpis", h.getKPIs)
		v1.GET("/products", h.getProducts)
		v1.GET("/customers", h.getCustomers)
		v1.GET("/segments", h.getSegments)
		v1.GET("/repeat-customers", h.getRepeatCustomers)
		v1.GET("/loyalty", h.getLoyalty)
		v1.GET("/monthly-revenue", h.getMonthlyRevenue)
		v1.GET("/categories", h.getCategories)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// parseQuery reads the category selection. Each "category" value is one
// category name taken verbatim. Without any category parameter every category
// is selected; "filtered=1" with no category selects none.
func parseQuery(c *gin.Context) service.Query {
	categories := make([]string, 0)
	for _, name := range c.QueryArray("category") {
		if strings.TrimSpace(name) != "" {
			categories = append(categories, name)
		}
	}

	if len(categories) > 0 {
		return service.Query{Categories: categories}
	}
	if _, filtered := c.GetQuery("filtered"); filtered {
		return service.Query{Categories: categories}
	}
	return service.Query{AllCategories: true}
}

// loadDashboard computes the dashboard or writes the error response
func (h *Handler) loadDashboard(c *gin.Context) (*models.Dashboard, bool) {
	dash, err := h.dashboards.GetDashboard(c.Request.Context(), parseQuery(c))
	if err != nil {
		h.logger.Error("Failed to compute dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   errorMessage(err),
			"details": err.Error(),
		})
		return nil, false
	}
	return dash, true
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, analytics.ErrEmptyJoin):
		return "No sales match both a product and a customer"
	case errors.Is(err, analytics.ErrMalformedRow):
		return "Source data contains a malformed row"
	default:
		return "Failed to compute dashboard"
	}
}

// dashboardPage renders the HTML dashboard
func (h *Handler) dashboardPage(c *gin.Context) {
	dash, err := h.dashboards.GetDashboard(c.Request.Context(), parseQuery(c))
	if err != nil {
		h.logger.Error("Failed to compute dashboard", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Error":   errorMessage(err),
			"Details": err.Error(),
		})
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Dashboard": dash,
		"Charts":    chart.Build(dash),
		"ExportURL": "/api/v1/dashboard/export?" + c.Request.URL.RawQuery,
	})
}

// getDashboard returns every projection at once
func (h *Handler) getDashboard(c *gin.Context) {
	if dash, ok := h.loadDashboard(c); ok {
		c.JSON(http.StatusOK, dash)
	}
}

// exportDashboard sends the dashboard as an xlsx workbook
func (h *Handler) exportDashboard(c *gin.Context) {
	dash, ok := h.loadDashboard(c)
	if !ok {
		return
	}

	h.writeWorkbook(c, dash, export.WriteWorkbook)
}

// writeWorkbook renders the workbook fully before any byte reaches the client
func (h *Handler) writeWorkbook(c *gin.Context, dash *models.Dashboard, write func(io.Writer, *models.Dashboard) error) {
	var buf bytes.Buffer
	if err := write(&buf, dash); err != nil {
		h.logger.Error("Failed to export dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to export dashboard",
			"details": err.Error(),
		})
		return
	}

	filename := fmt.Sprintf("retail-dashboard-%s.xlsx", dash.ComputedAt.Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) getKPIs(c *gin.Context) {
	if dash, ok := h.loadDashboard(c); ok {
		c.JSON(http.StatusOK, gin.H{
			"categories": dash.SelectedCategories,
			"kpis":       dash.KPIs,
		})
	}
}

// getProducts returns product performance; "order=top|bottom" with "limit" narrows it
func (h *Handler) getProducts(c *gin.Context) {
	limit := analytics.DefaultTopN
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit",
			})
			return
		}
		limit = n
	}

	order := c.DefaultQuery("order", "all")
	if order != "all" && order != "top" && order != "bottom" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order, expected top, bottom or all",
		})
		return
	}

	dash, ok := h.loadDashboard(c)
	if !ok {
		return
	}

	products := dash.ProductPerformance
	switch order {
	case "top":
		products = analytics.TopProducts(products, limit)
	case "bottom":
		products = analytics.BottomProducts(products, limit)
	}

	c.JSON(http.StatusOK, gin.H{
		"order":    order,
		"products": products,
	})
}

func (h *Handler) getCustomers(c *gin.Context) {
	if dash, ok := h.loadDashboard(c); ok {
		c.JSON(http.StatusOK, gin.H{"customers": dash.Customers})
	}
}

func (h *Handler) getSegments(c *gin.Context) {
	if dash, ok := h.loadDashboard(c); ok {
		c.JSON(http.StatusOK, gin.H{
			"segments": dash.Segments,
			"counts":   dash.SegmentCounts,
		})
	}
}

func (h *Handler) getRepeatCustomers(c *gin.Context) {
	if dash, ok := h.loadDashboard(c); ok {
		c.JSON(http.StatusOK, gin.H{"repeat_customers": dash.RepeatCustomers})
	}
}

func (h *Handler) getLoyalty(c *gin.Context) {
	if dash, ok := h.loadDashboard(c); ok {
		c.JSON(http.StatusOK, gin.H{
			"loyalty": dash.Loyalty,
			"chart":   chart.Loyalty(dash.Loyalty),
		})
	}
}

func (h *Handler) getMonthlyRevenue(c *gin.Context) {
	if dash, ok := h.loadDashboard(c); ok {
		c.JSON(http.StatusOK, gin.H{"monthly_revenue": dash.MonthlyRevenue})
	}
}

func (h *Handler) getCategories(c *gin.Context) {
	if dash, ok := h.loadDashboard(c); ok {
		c.JSON(http.StatusOK, gin.H{"categories": dash.AvailableCategories})
	}
}

// formatMoney renders an amount as $1,234.56
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "$" + b.String() + frac
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
