package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/servicedesk/ticket-service/internal/config"
	"github.com/servicedesk/ticket-service/internal/events"
)

func TestWebhookBodyEscapesTicketText(t *testing.T) {
	body := webhookBody(events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: "t-1",
		Actor:    "<bob>",
		Message:  "if a<b then fail",
	})
	assert.Contains(t, body, "by &lt;bob&gt;")
	assert.Contains(t, body, "<p>if a&lt;b then fail</p>")
	assert.NotContains(t, body, "<bob>")
}

func TestNotificationStubLogsRenderedBody(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{WebhookURL: "http://hooks.local/desk"})
	svc.RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type: events.EventTicketCommentAdded, TicketID: "t-1", Actor: "bob", Message: "<Printer> broken",
	}))

	stubs := logs.FilterMessage("sendWebhookNotificationStub").All()
	require.Len(t, stubs, 1)
	assert.Contains(t, stubs[0].ContextMap()["body"], "&lt;Printer&gt; broken")
}
