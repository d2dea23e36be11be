package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"retail-dashboard/internal/analytics"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// TableLoader reads the three source tables
type TableLoader interface {
	LoadTables(ctx context.Context) (*models.Tables, error)
}

// DashboardCache stores computed dashboards between requests
type DashboardCache interface {
	GetDashboard(ctx context.Context, key string, dest interface{}) (bool, error)
	SetDashboard(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidateDashboards(ctx context.Context) (int, error)
}

// EventPublisher announces computed dashboards
type EventPublisher interface {
	PublishDashboardComputed(ctx context.Context, event *models.DashboardComputedEvent) error
}

// Query selects the categories a dashboard is computed for.
// AllCategories overrides Categories with every inventory category.
type Query struct {
	Categories    []string
	AllCategories bool
}

// cacheKey identifies the selection regardless of category order. Names are
// JSON-encoded so separators inside a name cannot collide with another selection.
func (q Query) cacheKey() string {
	if q.AllCategories {
		return "all"
	}
	sorted := append([]string{}, q.Categories...)
	sort.Strings(sorted)
	encoded, _ := json.Marshal(sorted)
	return "sel:" + string(encoded)
}

// DashboardService loads the source tables and computes dashboards
type DashboardService struct {
	loader    TableLoader
	cache     DashboardCache
	publisher EventPublisher
	cacheTTL  time.Duration
	topN      int
	logger    *zap.Logger
}

// NewDashboardService creates a new dashboard service. cache and publisher may be nil.
func NewDashboardService(
	loader TableLoader,
	cache DashboardCache,
	publisher EventPublisher,
	cacheTTL time.Duration,
	topN int,
) *DashboardService {
	if topN <= 0 {
		topN = analytics.DefaultTopN
	}
	return &DashboardService{
		loader:    loader,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
		topN:      topN,
		logger:    util.GetLogger(),
	}
}

// GetDashboard returns the dashboard for q, recomputing it from the source
// tables unless a cached copy exists
func (s *DashboardService) GetDashboard(ctx context.Context, q Query) (*models.Dashboard, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.GetDashboard")
	defer span.End()

	key := q.cacheKey()
	span.SetAttributes(attribute.String("dashboard.key", key))

	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	start := time.Now()

	tables, err := s.loader.LoadTables(ctx)
	if err != nil {
		util.DashboardFailuresTotal.WithLabelValues("load").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}

	util.TableRowsLoaded.WithLabelValues("sales").Set(float64(len(tables.Sales)))
	util.TableRowsLoaded.WithLabelValues("customers").Set(float64(len(tables.Customers)))
	util.TableRowsLoaded.WithLabelValues("inventory").Set(float64(len(tables.Inventory)))

	categories := q.Categories
	if q.AllCategories {
		categories = analytics.Categories(tables.Inventory)
	}

	dash, err := analytics.Build(tables, categories, s.topN)
	if err != nil {
		util.DashboardFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "compute failed")
		s.logger.Error("Dashboard computation failed",
			zap.String("key", key),
			zap.Int("sales", len(tables.Sales)),
			zap.Error(err))
		return nil, err
	}

	util.DashboardComputationsTotal.Inc()
	util.DashboardComputeLatency.Observe(time.Since(start).Seconds())
	util.MergedRowsTotal.Set(float64(dash.MergedRows))
	span.SetAttributes(attribute.Int("dashboard.merged_rows", dash.MergedRows))

	s.logger.Info("Dashboard computed",
		zap.String("key", key),
		zap.Int("merged_rows", dash.MergedRows),
		zap.Int("total_orders", dash.KPIs.TotalOrders),
		zap.Duration("took", time.Since(start)))

	if s.cache != nil {
		if err := s.cache.SetDashboard(ctx, key, dash, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache dashboard", zap.String("key", key), zap.Error(err))
		}
	}

	s.publishComputed(ctx, dash)
	return dash, nil
}

func (s *DashboardService) fromCache(ctx context.Context, key string) *models.Dashboard {
	if s.cache == nil {
		return nil
	}

	var cached models.Dashboard
	found, err := s.cache.GetDashboard(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !found {
		util.DashboardCacheMissesTotal.Inc()
		return nil
	}

	util.DashboardCacheHitsTotal.Inc()
	return &cached
}

func (s *DashboardService) publishComputed(ctx context.Context, dash *models.Dashboard) {
	if s.publisher == nil {
		return
	}

	event := &models.DashboardComputedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeDashboardComputed,
			Timestamp: time.Now(),
		},
		Categories: dash.SelectedCategories,
		KPIs:       dash.KPIs,
		MergedRows: dash.MergedRows,
	}

	if err := s.publisher.PublishDashboardComputed(ctx, event); err != nil {
		util.EventsPublishedTotal.WithLabelValues(event.EventType, "failed").Inc()
		s.logger.Error("Failed to publish DashboardComputed event", zap.Error(err))
		return
	}
	util.EventsPublishedTotal.WithLabelValues(event.EventType, "ok").Inc()
}

// Warmup computes the default dashboard once. A failure here means the
// database or its tables are unusable.
func (s *DashboardService) Warmup(ctx context.Context) error {
	_, err := s.GetDashboard(ctx, Query{AllCategories: true})
	return err
}

// Refresh drops cached dashboards after the source tables changed and
// recomputes the default one
func (s *DashboardService) Refresh(ctx context.Context, event *models.TablesChangedEvent) error {
	ctx, span := util.StartSpan(ctx, "DashboardService.Refresh")
	defer span.End()

	s.logger.Info("Source tables changed",
		zap.String("event_id", event.EventID),
		zap.Strings("tables", event.Tables))

	if s.cache != nil {
		removed, err := s.cache.InvalidateDashboards(ctx)
		if err != nil {
			return fmt.Errorf("failed to invalidate dashboards: %w", err)
		}
		s.logger.Info("Cached dashboards invalidated", zap.Int("removed", removed))
	}

	util.CacheRefreshesTotal.Inc()
	return s.Warmup(ctx)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, analytics.ErrEmptyJoin):
		return "empty_join"
	case errors.Is(err, analytics.ErrMalformedRow):
		return "malformed_row"
	default:
		return "compute"
	}
}
