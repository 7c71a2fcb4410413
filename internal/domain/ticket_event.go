package domain

import "time"

// Audit type tags shared by the event log and the activity log.
const (
	EventCreated            = "Created"
	EventTitleChanged       = "TitleChanged"
	EventDescriptionChanged = "DescriptionChanged"
	EventPriorityChanged    = "PriorityChanged"
	EventAssigned           = "Assigned"
	EventStatusChanged      = "StatusChanged"
	EventClosed             = "Closed"
	EventReopened           = "Reopened"
	EventCommentAdded       = "CommentAdded"
	EventDeleted            = "Deleted"
	EventEvidenceUploaded   = "EvidenceUploaded"
	EventEvidenceDeleted    = "EvidenceDeleted"
)

// TicketEvent is an append-only raw audit record.
type TicketEvent struct {
	ID        string
	TicketID  string
	Type      string
	Message   string
	By        string
	CreatedAt time.Time
}

// TicketActivity is the narrative counterpart of TicketEvent.
type TicketActivity struct {
	ID        string
	TicketID  string
	Action    string
	Message   string
	By        string
	CreatedAt time.Time
}
