package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/config"
	"github.com/servicedesk/ticket-service/internal/events"
	"github.com/servicedesk/ticket-service/pkg/util"
)

// NotificationService logs notification stubs for ticket events that people
// usually want to hear about.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketAssigned,
		events.EventTicketStatusChanged,
		events.EventTicketClosed,
		events.EventTicketReopened,
		events.EventTicketCommentAdded,
	} {
		n.dispatcher.Subscribe(t, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket notification",
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)),
		zap.String("actor", event.Actor))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)),
		zap.String("body", webhookBody(event)))
}

// webhookBody renders the HTML body posted to the webhook. Ticket text is
// escaped here because it is stored exactly as typed.
func webhookBody(event events.Event) string {
	return fmt.Sprintf("<p><strong>%s</strong> on ticket %s by %s</p>%s",
		event.Type, html.EscapeString(event.TicketID), html.EscapeString(event.Actor), util.HTMLText(event.Message))
}
