package worker

import (
	"github.com/servicedesk/ticket-service/internal/events"
	"github.com/servicedesk/ticket-service/internal/persistence"
	"github.com/servicedesk/ticket-service/internal/service"
)

// StartNotificationWorker registers the in-process event subscribers: the
// notification log and, when Redis is configured, the pub/sub forwarder.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, redis *persistence.Redis, channel string) {
	if dispatcher == nil {
		return
	}
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if redis.Enabled() {
		events.NewRedisPublisher(redis.Client, channel).Register(dispatcher)
	}
}
