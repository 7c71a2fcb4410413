package dto

import (
	"time"

	"github.com/servicedesk/ticket-service/internal/domain"
)

// CreateTicketRequest payload. created_by falls back to the caller identity.
type CreateTicketRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description *string   `json:"description"`
	Priority    EnumValue `json:"priority"`
	Category    EnumValue `json:"category"`
	Type        EnumValue `json:"type"`
	CreatedBy   string    `json:"created_by"`
	AssignedTo  *string   `json:"assigned_to"`
}

// UpdateTicketRequest replaces the editable fields.
type UpdateTicketRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description *string   `json:"description"`
	Priority    EnumValue `json:"priority" validate:"required"`
	AssignedTo  *string   `json:"assigned_to"`
	By          string    `json:"by"`
}

// PatchTicketRequest changes only the fields that are present.
type PatchTicketRequest struct {
	Status     *EnumValue `json:"status"`
	Priority   *EnumValue `json:"priority"`
	AssignedTo *string    `json:"assigned_to"`
	By         string     `json:"by"`
}

// TicketActionRequest is the body of close and reopen.
type TicketActionRequest struct {
	By      string `json:"by"`
	Comment string `json:"comment"`
}

// CommentRequest adds a comment.
type CommentRequest struct {
	By   string `json:"by"`
	Text string `json:"text" validate:"required"`
}

// DeleteRequest carries the mandatory actor and reason of a soft delete.
type DeleteRequest struct {
	By     string `json:"by" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// TicketResponse is the public ticket shape.
type TicketResponse struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  *string               `json:"description"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	Category     domain.TicketCategory `json:"category"`
	Type         domain.TicketType     `json:"type"`
	SLAHours     int                   `json:"sla_hours"`
	CreatedBy    string                `json:"created_by"`
	AssignedTo   *string               `json:"assigned_to"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	IsDeleted    bool                  `json:"is_deleted"`
	DeletedAt    *time.Time            `json:"deleted_at,omitempty"`
	DeletedBy    *string               `json:"deleted_by,omitempty"`
	DeleteReason *string               `json:"delete_reason,omitempty"`
}

// ActivityResponse is one narrative audit entry.
type ActivityResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	By        string    `json:"by"`
	CreatedAt time.Time `json:"created_at"`
}

// EventResponse is one raw audit entry. Comments use the same shape.
type EventResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	By        string    `json:"by"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketDetailResponse is the ticket with its activity and comment feeds.
type TicketDetailResponse struct {
	TicketResponse
	Activities []ActivityResponse `json:"activities"`
	Comments   []EventResponse    `json:"comments"`
}

// PageResponse is one page of a listing.
type PageResponse[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		Priority:     t.Priority,
		Category:     t.Category,
		Type:         t.Type,
		SLAHours:     t.SLAHours,
		CreatedBy:    t.CreatedBy,
		AssignedTo:   t.AssignedTo,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		IsDeleted:    t.IsDeleted,
		DeletedAt:    t.DeletedAt,
		DeletedBy:    t.DeletedBy,
		DeleteReason: t.DeleteReason,
	}
}

// NewEventResponses maps an event feed.
func NewEventResponses(events []domain.TicketEvent) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{ID: e.ID, Type: e.Type, Message: e.Message, By: e.By, CreatedAt: e.CreatedAt})
	}
	return out
}

// NewTicketDetailResponse maps a detail view.
func NewTicketDetailResponse(d *domain.TicketDetail) TicketDetailResponse {
	activities := make([]ActivityResponse, 0, len(d.Activities))
	for _, a := range d.Activities {
		activities = append(activities, ActivityResponse{ID: a.ID, Action: a.Action, Message: a.Message, By: a.By, CreatedAt: a.CreatedAt})
	}
	return TicketDetailResponse{
		TicketResponse: NewTicketResponse(&d.Ticket),
		Activities:     activities,
		Comments:       NewEventResponses(d.Comments),
	}
}

// NewTicketPage maps a listing page.
func NewTicketPage(items []domain.Ticket, total, page, pageSize int) PageResponse[TicketResponse] {
	out := make([]TicketResponse, 0, len(items))
	for i := range items {
		out = append(out, NewTicketResponse(&items[i]))
	}
	return PageResponse[TicketResponse]{Items: out, Total: total, Page: page, PageSize: pageSize}
}
