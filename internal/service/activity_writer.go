package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/events"
	"github.com/servicedesk/ticket-service/internal/observability"
	"github.com/servicedesk/ticket-service/internal/repository"
	"github.com/servicedesk/ticket-service/pkg/util"
)

// Change is one audited mutation. Message goes to the event log and
// Narrative to the activity log. An empty Narrative skips the activity.
type Change struct {
	Type      string
	Message   string
	Narrative string
}

// ActivityWriter appends paired event and activity entries inside the
// caller's unit of work.
type ActivityWriter struct{}

// Record writes each change as one TicketEvent plus, when narrated, one
// TicketActivity. It returns the events for publishing after commit.
func (ActivityWriter) Record(ctx context.Context, uow repository.UnitOfWork, ticketID, actor string, at time.Time, changes ...Change) ([]domain.TicketEvent, error) {
	actor = util.Truncate(actor, domain.MaxActorLength)
	written := make([]domain.TicketEvent, 0, len(changes))
	for _, ch := range changes {
		ev := domain.TicketEvent{
			ID:        uuid.NewString(),
			TicketID:  ticketID,
			Type:      ch.Type,
			Message:   util.Truncate(ch.Message, domain.MaxEventMessageLength),
			By:        actor,
			CreatedAt: at,
		}
		if err := uow.Events().Append(ctx, &ev); err != nil {
			return nil, err
		}
		if ch.Narrative != "" {
			act := domain.TicketActivity{
				ID:        uuid.NewString(),
				TicketID:  ticketID,
				Action:    ch.Type,
				Message:   util.Truncate(ch.Narrative, domain.MaxEventMessageLength),
				By:        actor,
				CreatedAt: at,
			}
			if err := uow.Activities().Append(ctx, &act); err != nil {
				return nil, err
			}
		}
		written = append(written, ev)
	}
	return written, nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func withComment(base, comment string) string {
	if comment == "" {
		return base
	}
	return base + ": " + comment
}

func createdChange(t *domain.Ticket, actor string) Change {
	narrative := fmt.Sprintf("%s created the ticket %q", actor, t.Title)
	if t.AssignedTo != nil {
		narrative += fmt.Sprintf(" assigned to %s", *t.AssignedTo)
	}
	return Change{Type: domain.EventCreated, Message: "Ticket created", Narrative: narrative}
}

func titleChange(old, cur, actor string) Change {
	return Change{
		Type:      domain.EventTitleChanged,
		Message:   fmt.Sprintf("Title: %s -> %s", old, cur),
		Narrative: fmt.Sprintf("%s changed the title from %q to %q", actor, old, cur),
	}
}

func descriptionChange(old, cur *string, actor string) Change {
	return Change{
		Type:      domain.EventDescriptionChanged,
		Message:   fmt.Sprintf("Description: %s -> %s", orDash(old), orDash(cur)),
		Narrative: actor + " updated the description",
	}
}

func priorityChange(old, cur domain.TicketPriority, oldHours, hours int, actor string) Change {
	return Change{
		Type:      domain.EventPriorityChanged,
		Message:   fmt.Sprintf("Priority: %s -> %s (SLA %dh -> %dh)", old, cur, oldHours, hours),
		Narrative: fmt.Sprintf("%s changed priority from %s to %s, SLA target is now %dh", actor, old, cur, hours),
	}
}

func assignChange(old, cur *string, actor string) Change {
	narrative := actor + " unassigned the ticket"
	if cur != nil {
		narrative = fmt.Sprintf("%s assigned the ticket to %s", actor, *cur)
	}
	return Change{
		Type:      domain.EventAssigned,
		Message:   fmt.Sprintf("AssignedTo: %s -> %s", orDash(old), orDash(cur)),
		Narrative: narrative,
	}
}

func statusChange(old, cur domain.TicketStatus, actor string) Change {
	return Change{
		Type:      domain.EventStatusChanged,
		Message:   fmt.Sprintf("Status: %s -> %s", old, cur),
		Narrative: fmt.Sprintf("%s changed status from %s to %s", actor, old, cur),
	}
}

func closedChange(actor, comment string) Change {
	return Change{
		Type:      domain.EventClosed,
		Message:   withComment("Ticket closed", comment),
		Narrative: withComment(actor+" closed the ticket", comment),
	}
}

func reopenedChange(actor, comment string) Change {
	return Change{
		Type:      domain.EventReopened,
		Message:   withComment("Ticket reopened", comment),
		Narrative: withComment(actor+" reopened the ticket", comment),
	}
}

func deletedChange(actor, reason string) Change {
	return Change{
		Type:      domain.EventDeleted,
		Message:   reason,
		Narrative: fmt.Sprintf("%s deleted the ticket. Reason: %s", actor, reason),
	}
}

// commentChange has no narrative: comments live in the event log only.
func commentChange(text string) Change {
	return Change{Type: domain.EventCommentAdded, Message: text}
}

func evidenceUploadedChange(ev *domain.TicketEvidence, actor string) Change {
	comment := ""
	if ev.Comment != nil {
		comment = *ev.Comment
	}
	msg := "Uploaded: " + ev.FileName
	if comment != "" {
		msg += " | Comment: " + comment
	}
	return Change{
		Type:      domain.EventEvidenceUploaded,
		Message:   msg,
		Narrative: fmt.Sprintf("%s uploaded evidence %s (%d bytes)", actor, ev.FileName, ev.SizeBytes),
	}
}

func evidenceDeletedChange(ev *domain.TicketEvidence, actor, reason string) Change {
	return Change{
		Type:      domain.EventEvidenceDeleted,
		Message:   fmt.Sprintf("Evidence %s deleted. Reason: %s", ev.ID, reason),
		Narrative: fmt.Sprintf("%s deleted evidence %s. Reason: %s", actor, ev.FileName, reason),
	}
}

// publisher hands committed events to the dispatcher. Failures are logged
// and never reach the caller.
type publisher struct {
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, written []domain.TicketEvent) {
	if p.dispatcher == nil {
		return
	}
	for _, ev := range written {
		p.metrics.RecordPublished(ev.Type)
		if err := p.dispatcher.Publish(ctx, events.FromTicketEvent(ev)); err != nil {
			p.logger.Warn("ticket event publish failed",
				zap.String("ticket_id", ev.TicketID),
				zap.String("event_type", ev.Type),
				zap.Error(err))
		}
	}
}

// clock returns UTC timestamps at the precision PostgreSQL stores.
type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC().Truncate(time.Microsecond)
	}
	return c().UTC().Truncate(time.Microsecond)
}

// after returns a timestamp strictly later than prev.
func (c clock) after(prev time.Time) time.Time {
	now := c.now()
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
