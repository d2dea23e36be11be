package worker

import (
	"context"

	"retail-dashboard/internal/broker"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/util"

	"go.uber.org/zap"
)

// Refresher reacts to changes of the source tables
type Refresher interface {
	Refresh(ctx context.Context, event *models.TablesChangedEvent) error
}

// RefreshWorker consumes data events and refreshes cached dashboards
type RefreshWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewRefreshWorker creates a new refresh worker
func NewRefreshWorker(consumer *broker.Consumer, refresher Refresher) *RefreshWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnTablesChanged(refresher.Refresh)

	return &RefreshWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start blocks consuming data events until ctx is cancelled
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting refresh worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *RefreshWorker) Stop() error {
	w.logger.Info("Stopping refresh worker")
	return w.consumer.Close()
}
