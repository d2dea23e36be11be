package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing dashboard events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishDashboardComputed publishes DashboardComputed event keyed by the category selection
func (ep *EventPublisher) PublishDashboardComputed(ctx context.Context, event *models.DashboardComputedEvent) error {
	key := "dashboard-" + strings.Join(event.Categories, "|")
	return ep.producer.PublishEvent(ctx, key, event.EventType, event)
}

// EventHandler routes incoming data events
type EventHandler struct {
	onTablesChanged func(context.Context, *models.TablesChangedEvent) error
	logger          *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnTablesChanged registers a handler for TablesChanged events
func (eh *EventHandler) OnTablesChanged(handler func(context.Context, *models.TablesChangedEvent) error) {
	eh.onTablesChanged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeTablesChanged:
		if eh.onTablesChanged != nil {
			var event models.TablesChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal TablesChanged event: %w", err)
			}
			return eh.onTablesChanged(ctx, &event)
		}

	default:
		eh.logger.Debug("Ignoring event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
