package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/stock-ledger/internal/messaging"
	"github.com/spec-kit/stock-ledger/internal/service"
)

// StartNotificationWorker subscribes the notification service to stock
// events. Events are always logged; broker forwarding depends on publisher.
func StartNotificationWorker(notifications *service.NotificationService, publisher *messaging.Rabbit, logger *zap.Logger) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
	logger.Info("notification worker started", zap.Bool("broker", publisher != nil))
}
