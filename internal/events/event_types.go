package events

import (
	"time"

	"github.com/servicedesk/ticket-service/internal/domain"
)

// EventType mirrors the audit tag written to the ticket event log.
type EventType string

const (
	// EventAny subscribes a handler to every event type.
	EventAny EventType = "*"

	EventTicketCreated          EventType = domain.EventCreated
	EventTicketTitleChanged     EventType = domain.EventTitleChanged
	EventTicketDescriptionEdit  EventType = domain.EventDescriptionChanged
	EventTicketPriorityChanged  EventType = domain.EventPriorityChanged
	EventTicketAssigned         EventType = domain.EventAssigned
	EventTicketStatusChanged    EventType = domain.EventStatusChanged
	EventTicketClosed           EventType = domain.EventClosed
	EventTicketReopened         EventType = domain.EventReopened
	EventTicketCommentAdded     EventType = domain.EventCommentAdded
	EventTicketDeleted          EventType = domain.EventDeleted
	EventTicketEvidenceUploaded EventType = domain.EventEvidenceUploaded
	EventTicketEvidenceDeleted  EventType = domain.EventEvidenceDeleted
)

// Event is a committed ticket audit entry handed to subscribers.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     string    `json:"actor"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// FromTicketEvent converts a persisted audit entry.
func FromTicketEvent(ev domain.TicketEvent) Event {
	return Event{
		ID:        ev.ID,
		Type:      EventType(ev.Type),
		TicketID:  ev.TicketID,
		Actor:     ev.By,
		Message:   ev.Message,
		Timestamp: ev.CreatedAt,
	}
}
