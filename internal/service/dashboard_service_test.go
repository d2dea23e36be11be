package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"retail-dashboard/internal/analytics"
	"retail-dashboard/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	tables *models.Tables
	err    error
	calls  int
}

func (f *fakeLoader) LoadTables(context.Context) (*models.Tables, error) {
	f.calls++
	return f.tables, f.err
}

type fakeCache struct {
	entries     map[string][]byte
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) GetDashboard(_ context.Context, key string, dest interface{}) (bool, error) {
	data, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (f *fakeCache) SetDashboard(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = data
	return nil
}

func (f *fakeCache) InvalidateDashboards(context.Context) (int, error) {
	n := len(f.entries)
	f.entries = make(map[string][]byte)
	f.invalidated++
	return n, nil
}

type fakePublisher struct {
	events []*models.DashboardComputedEvent
	err    error
}

func (f *fakePublisher) PublishDashboardComputed(_ context.Context, e *models.DashboardComputedEvent) error {
	f.events = append(f.events, e)
	return f.err
}

func testTables() *models.Tables {
	ts := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	return &models.Tables{
		Inventory: []models.Product{
			{ProductID: 1, ProductName: "Kettle", Category: "Kitchen", Price: decimal.NewFromInt(30)},
			{ProductID: 2, ProductName: "Puzzle", Category: "Toys", Price: decimal.NewFromInt(15)},
		},
		Customers: []models.Customer{
			{CustomerID: 7, Age: 40, Gender: "Female", Location: "Boston"},
		},
		Sales: []models.Sale{
			{TransactionID: 1, ProductID: 1, CustomerID: 7, QuantityPurchased: 1, Price: decimal.NewFromInt(28), TransactionDate: ts},
			{TransactionID: 2, ProductID: 2, CustomerID: 7, QuantityPurchased: 2, Price: decimal.NewFromInt(15), TransactionDate: ts.AddDate(0, 0, 3)},
		},
	}
}

func TestGetDashboardAllCategories(t *testing.T) {
	loader := &fakeLoader{tables: testTables()}
	publisher := &fakePublisher{}
	svc := NewDashboardService(loader, nil, publisher, time.Minute, 0)

	dash, err := svc.GetDashboard(context.Background(), Query{AllCategories: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"Kitchen", "Toys"}, dash.SelectedCategories)
	assert.Equal(t, 2, dash.KPIs.TotalOrders)
	assert.True(t, decimal.NewFromInt(58).Equal(dash.KPIs.TotalRevenue))

	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.EventTypeDashboardComputed, publisher.events[0].EventType)
	assert.NotEmpty(t, publisher.events[0].EventID)
	assert.Equal(t, 2, publisher.events[0].MergedRows)
}

func TestGetDashboardSelectedCategories(t *testing.T) {
	svc := NewDashboardService(&fakeLoader{tables: testTables()}, nil, nil, time.Minute, analytics.DefaultTopN)

	dash, err := svc.GetDashboard(context.Background(), Query{Categories: []string{"Toys"}})
	require.NoError(t, err)
	assert.Equal(t, 1, dash.KPIs.TotalOrders)
	assert.True(t, decimal.NewFromInt(30).Equal(dash.KPIs.TotalRevenue))
}

func TestGetDashboardEmptySelection(t *testing.T) {
	svc := NewDashboardService(&fakeLoader{tables: testTables()}, nil, nil, time.Minute, 0)

	dash, err := svc.GetDashboard(context.Background(), Query{Categories: []string{}})
	require.NoError(t, err)
	assert.Zero(t, dash.KPIs.TotalOrders)
	assert.Zero(t, dash.KPIs.TotalCustomers)
	assert.True(t, dash.KPIs.TotalRevenue.IsZero())
}

func TestGetDashboardServesFromCache(t *testing.T) {
	loader := &fakeLoader{tables: testTables()}
	cache := newFakeCache()
	svc := NewDashboardService(loader, cache, nil, time.Minute, 0)
	ctx := context.Background()

	first, err := svc.GetDashboard(ctx, Query{Categories: []string{"Toys", "Kitchen"}})
	require.NoError(t, err)

	// same selection in another order hits the same entry
	second, err := svc.GetDashboard(ctx, Query{Categories: []string{"Kitchen", "Toys"}})
	require.NoError(t, err)

	assert.Equal(t, 1, loader.calls)
	assert.Equal(t, first.KPIs.TotalOrders, second.KPIs.TotalOrders)
	assert.True(t, first.KPIs.TotalRevenue.Equal(second.KPIs.TotalRevenue))
}

func TestGetDashboardLoadError(t *testing.T) {
	svc := NewDashboardService(&fakeLoader{err: errors.New("connection refused")}, nil, nil, time.Minute, 0)

	_, err := svc.GetDashboard(context.Background(), Query{AllCategories: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load tables")
}

func TestGetDashboardEmptyJoin(t *testing.T) {
	tables := testTables()
	tables.Customers = nil
	publisher := &fakePublisher{}
	svc := NewDashboardService(&fakeLoader{tables: tables}, nil, publisher, time.Minute, 0)

	_, err := svc.GetDashboard(context.Background(), Query{AllCategories: true})
	assert.ErrorIs(t, err, analytics.ErrEmptyJoin)
	assert.Empty(t, publisher.events)
}

func TestGetDashboardIgnoresPublishFailure(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := NewDashboardService(&fakeLoader{tables: testTables()}, nil, publisher, time.Minute, 0)

	_, err := svc.GetDashboard(context.Background(), Query{AllCategories: true})
	assert.NoError(t, err)
}

func TestRefreshInvalidatesAndWarms(t *testing.T) {
	loader := &fakeLoader{tables: testTables()}
	cache := newFakeCache()
	svc := NewDashboardService(loader, cache, nil, time.Minute, 0)
	ctx := context.Background()

	_, err := svc.GetDashboard(ctx, Query{Categories: []string{"Toys"}})
	require.NoError(t, err)

	err = svc.Refresh(ctx, &models.TablesChangedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt", EventType: models.EventTypeTablesChanged},
		Tables:    []string{"sales"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, cache.invalidated)
	assert.Equal(t, 2, loader.calls)
	_, warmed := cache.entries["all"]
	assert.True(t, warmed)
	_, stale := cache.entries[`sel:["Toys"]`]
	assert.False(t, stale)
}

func TestQueryCacheKey(t *testing.T) {
	assert.Equal(t, "all", Query{AllCategories: true, Categories: []string{"x"}}.cacheKey())
	assert.Equal(t, "sel:[]", Query{}.cacheKey())
	assert.Equal(t, `sel:["A","B"]`, Query{Categories: []string{"B", "A"}}.cacheKey())
	assert.NotEqual(t,
		Query{Categories: []string{"A|B"}}.cacheKey(),
		Query{Categories: []string{"A", "B"}}.cacheKey())
}

func TestGetDashboardSeparatorInCategoryName(t *testing.T) {
	tables := testTables()
	tables.Inventory[0].Category = "A"
	tables.Inventory[1].Category = "B"
	tables.Inventory = append(tables.Inventory,
		models.Product{ProductID: 3, ProductName: "Lamp", Category: "A|B", Price: decimal.NewFromInt(9)})

	loader := &fakeLoader{tables: tables}
	svc := NewDashboardService(loader, newFakeCache(), nil, time.Minute, 0)
	ctx := context.Background()

	piped, err := svc.GetDashboard(ctx, Query{Categories: []string{"A|B"}})
	require.NoError(t, err)
	assert.Zero(t, piped.KPIs.TotalOrders)

	both, err := svc.GetDashboard(ctx, Query{Categories: []string{"A", "B"}})
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls)
	assert.Equal(t, []string{"A", "B"}, both.SelectedCategories)
	assert.Equal(t, 2, both.KPIs.TotalOrders)
}
