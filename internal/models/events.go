package models

import "time"

// Event types
const (
	EventTypeDashboardComputed = "DASHBOARD_COMPUTED"
	EventTypeTablesChanged     = "TABLES_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// DashboardComputedEvent published after a dashboard is computed from the source tables
type DashboardComputedEvent struct {
	BaseEvent
	Categories []string `json:"categories"`
	KPIs       KPIs     `json:"kpis"`
	MergedRows int      `json:"merged_rows"`
}

// TablesChangedEvent published by whatever writes the source tables
type TablesChangedEvent struct {
	BaseEvent
	Tables []string `json:"tables"`
}
