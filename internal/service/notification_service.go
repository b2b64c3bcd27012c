package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/stock-ledger/internal/events"
	"github.com/spec-kit/stock-ledger/internal/messaging"
)

// NotificationService tells administrators about stock events. Every event
// is logged and, when a broker is configured, forwarded to RabbitMQ.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  messaging.Publisher
	logger     *zap.Logger
}

// NewNotificationService creates the service. publisher may be nil.
func NewNotificationService(dispatcher events.Dispatcher, publisher messaging.Publisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventItemDepleted, n.handleItemDepleted)
	n.dispatcher.Subscribe(events.EventItemRefilled, n.handleItemRefilled)
	n.dispatcher.Subscribe(events.EventReservationRequested, n.handleReservation)
	n.dispatcher.Subscribe(events.EventReservationFulfilled, n.handleReservation)
	n.dispatcher.Subscribe(events.EventTransferImported, n.handleTransferImported)
}

func (n *NotificationService) handleItemDepleted(ctx context.Context, event events.Event) error {
	n.logger.Warn("ItemDepleted",
		zap.String("department", event.Department),
		zap.String("actor", event.Actor.Email),
		zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleItemRefilled(ctx context.Context, event events.Event) error {
	n.logger.Info("ItemRefilled",
		zap.String("department", event.Department),
		zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleReservation(ctx context.Context, event events.Event) error {
	n.logger.Info("Reservation",
		zap.String("event_type", string(event.Type)),
		zap.String("department", event.Department),
		zap.String("actor", event.Actor.Email),
		zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleTransferImported(ctx context.Context, event events.Event) error {
	n.logger.Info("TransferImported", zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if n.publisher == nil {
		return nil
	}
	if err := n.publisher.Publish(ctx, string(event.Type), event); err != nil {
		n.logger.Debug("notification publish failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}
