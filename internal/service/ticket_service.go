package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/events"
	"github.com/servicedesk/ticket-service/internal/observability"
	"github.com/servicedesk/ticket-service/internal/repository"
	"github.com/servicedesk/ticket-service/pkg/util"
)

// Messages returned alongside the ticket when an operation changes nothing.
const (
	MsgAlreadyClosed  = "Already closed"
	MsgNotClosed      = "Not closed"
	MsgAlreadyDeleted = "Already deleted"
	MsgNoChanges      = "No changes"
)

// TicketService coordinates the ticket lifecycle and its audit trail.
type TicketService struct {
	store  repository.Store
	sla    *SLAService
	audit  ActivityWriter
	events publisher
	logger *zap.Logger
	clock  clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	SLA        *SLAService
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:  deps.Store,
		sla:    deps.SLA,
		events: publisher{dispatcher: deps.Dispatcher, metrics: deps.Metrics, logger: deps.Logger},
		logger: deps.Logger,
		clock:  deps.Now,
	}
}

// CreateTicketInput describes a new ticket. Enum fields take a symbolic name
// or an ordinal; blank enums use their defaults.
type CreateTicketInput struct {
	Title       string
	Description *string
	Priority    string
	Category    string
	Type        string
	CreatedBy   string
	AssignedTo  *string
}

// UpdateTicketInput is a full-replace edit of the editable fields.
type UpdateTicketInput struct {
	Title       string
	Description *string
	Priority    string
	AssignedTo  *string
}

// PatchTicketInput changes only the fields that are set. An empty
// AssignedTo unassigns the ticket.
type PatchTicketInput struct {
	Status     *string
	Priority   *string
	AssignedTo *string
}

// TicketResult is the detail view returned by lifecycle operations. Message
// is set when the operation was an idempotent no-op.
type TicketResult struct {
	Detail  *domain.TicketDetail
	Message string
}

// TicketPage is one page of a listing.
type TicketPage struct {
	Items    []domain.Ticket
	Total    int
	Page     int
	PageSize int
}

type problems map[string]any

func (p problems) add(field, message string) {
	if _, exists := p[field]; !exists {
		p[field] = message
	}
}

func (p problems) check(field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		p.add(field, fieldTooLong(limit))
	}
}

func (p problems) err(message string) error {
	if len(p) == 0 {
		return nil
	}
	return util.NewValidationError(message, p)
}

func fieldTooLong(limit int) string {
	return fmt.Sprintf("must be at most %d characters", limit)
}

func parseOr[T any](raw string, fallback T, parse func(string) (T, error)) (T, error) {
	if util.CleanText(raw) == "" {
		return fallback, nil
	}
	return parse(raw)
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Create validates the draft, resolves its SLA target and stores it Open.
func (s *TicketService) Create(ctx context.Context, in CreateTicketInput) (*TicketResult, error) {
	bad := problems{}
	title := util.CleanText(in.Title)
	if title == "" {
		bad.add("title", "title is required")
	}
	bad.check("title", title, domain.MaxTitleLength)
	description := util.CleanOptional(in.Description)
	if description != nil {
		bad.check("description", *description, domain.MaxDescriptionLength)
	}
	createdBy := util.CleanText(in.CreatedBy)
	if createdBy == "" {
		bad.add("created_by", "created_by is required")
	}
	bad.check("created_by", createdBy, domain.MaxActorLength)
	assignedTo := util.CleanOptional(in.AssignedTo)
	if assignedTo != nil {
		bad.check("assigned_to", *assignedTo, domain.MaxActorLength)
	}
	priority, err := parseOr(in.Priority, domain.TicketPriorityP3, domain.ParseTicketPriority)
	if err != nil {
		bad.add("priority", err.Error())
	}
	category, err := parseOr(in.Category, domain.TicketCategorySoftware, domain.ParseTicketCategory)
	if err != nil {
		bad.add("category", err.Error())
	}
	ticketType, err := parseOr(in.Type, domain.TicketTypeIncidencia, domain.ParseTicketType)
	if err != nil {
		bad.add("type", err.Error())
	}
	if err := bad.err("invalid ticket"); err != nil {
		return nil, err
	}

	now := s.clock.now()
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		Category:    category,
		Type:        ticketType,
		CreatedBy:   createdBy,
		AssignedTo:  assignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var written []domain.TicketEvent
	err = s.store.WithTx(ctx, func(uow repository.UnitOfWork) error {
		hours, err := s.sla.resolve(ctx, uow, priority)
		if err != nil {
			return err
		}
		ticket.SLAHours = hours
		if err := uow.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		written, err = s.audit.Record(ctx, uow, ticket.ID, createdBy, now, createdChange(ticket, createdBy))
		return err
	})
	if err != nil {
		s.logger.Error("create ticket failed", zap.Error(err))
		return nil, storeError(err, "ticket")
	}
	s.events.publish(ctx, written)
	return s.result(ctx, ticket.ID, true, "")
}

// Get returns a live ticket.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, notFound("ticket", id)
	}
	t, err := s.store.Repos().Tickets().GetByID(ctx, id, false)
	if err != nil {
		return nil, storeError(err, "ticket")
	}
	return t, nil
}

// GetDetail returns a live ticket with its activities and comments.
func (s *TicketService) GetDetail(ctx context.Context, id string) (*domain.TicketDetail, error) {
	if !validID(id) {
		return nil, notFound("ticket", id)
	}
	return s.detail(ctx, id, false)
}

// ListEvents returns the raw event log newest first. History of deleted
// tickets stays readable.
func (s *TicketService) ListEvents(ctx context.Context, id string) ([]domain.TicketEvent, error) {
	if !validID(id) {
		return nil, notFound("ticket", id)
	}
	repos := s.store.Repos()
	if _, err := repos.Tickets().GetByID(ctx, id, true); err != nil {
		return nil, storeError(err, "ticket")
	}
	evs, err := repos.Events().ListByTicket(ctx, id, "")
	if err != nil {
		return nil, storeError(err, "ticket event")
	}
	return evs, nil
}

// Update replaces title, description, priority and assignee, logging one
// audit pair per changed field.
func (s *TicketService) Update(ctx context.Context, id, actor string, in UpdateTicketInput) (*TicketResult, error) {
	actor = domain.ResolveActor(actor)
	bad := problems{}
	title := util.CleanText(in.Title)
	if title == "" {
		bad.add("title", "title is required")
	}
	bad.check("title", title, domain.MaxTitleLength)
	description := util.CleanOptional(in.Description)
	if description != nil {
		bad.check("description", *description, domain.MaxDescriptionLength)
	}
	assignedTo := util.CleanOptional(in.AssignedTo)
	if assignedTo != nil {
		bad.check("assigned_to", *assignedTo, domain.MaxActorLength)
	}
	priority, err := domain.ParseTicketPriority(in.Priority)
	if err != nil {
		bad.add("priority", err.Error())
	}
	if err := bad.err("invalid ticket update"); err != nil {
		return nil, err
	}

	changed, err := s.apply(ctx, id, actor, false, func(ctx context.Context, uow repository.UnitOfWork, t *domain.Ticket, _ time.Time) ([]Change, error) {
		var changes []Change
		if t.Title != title {
			changes = append(changes, titleChange(t.Title, title, actor))
			t.Title = title
		}
		if !equalOptional(t.Description, description) {
			changes = append(changes, descriptionChange(t.Description, description, actor))
			t.Description = description
		}
		if t.Priority != priority {
			ch, err := s.reprioritize(ctx, uow, t, priority, actor)
			if err != nil {
				return nil, err
			}
			changes = append(changes, ch)
		}
		if !equalOptional(t.AssignedTo, assignedTo) {
			changes = append(changes, assignChange(t.AssignedTo, assignedTo, actor))
			t.AssignedTo = assignedTo
		}
		return changes, nil
	})
	if err != nil {
		return nil, storeError(err, "ticket")
	}
	return s.result(ctx, id, false, noChange(changed, MsgNoChanges))
}

// Patch changes any subset of status, priority and assignee.
func (s *TicketService) Patch(ctx context.Context, id, actor string, in PatchTicketInput) (*TicketResult, error) {
	actor = domain.ResolveActor(actor)
	bad := problems{}
	var status *domain.TicketStatus
	if in.Status != nil {
		v, err := domain.ParseTicketStatus(*in.Status)
		if err != nil {
			bad.add("status", err.Error())
		}
		status = &v
	}
	var priority *domain.TicketPriority
	if in.Priority != nil {
		v, err := domain.ParseTicketPriority(*in.Priority)
		if err != nil {
			bad.add("priority", err.Error())
		}
		priority = &v
	}
	var assignedTo *string
	if in.AssignedTo != nil {
		assignedTo = util.CleanOptional(in.AssignedTo)
		if assignedTo != nil {
			bad.check("assigned_to", *assignedTo, domain.MaxActorLength)
		}
	}
	if err := bad.err("invalid ticket patch"); err != nil {
		return nil, err
	}

	changed, err := s.apply(ctx, id, actor, false, func(ctx context.Context, uow repository.UnitOfWork, t *domain.Ticket, _ time.Time) ([]Change, error) {
		var changes []Change
		if status != nil && t.Status != *status {
			changes = append(changes, statusChange(t.Status, *status, actor))
			t.Status = *status
		}
		if priority != nil && t.Priority != *priority {
			ch, err := s.reprioritize(ctx, uow, t, *priority, actor)
			if err != nil {
				return nil, err
			}
			changes = append(changes, ch)
		}
		if in.AssignedTo != nil && !equalOptional(t.AssignedTo, assignedTo) {
			changes = append(changes, assignChange(t.AssignedTo, assignedTo, actor))
			t.AssignedTo = assignedTo
		}
		return changes, nil
	})
	if err != nil {
		return nil, storeError(err, "ticket")
	}
	return s.result(ctx, id, false, noChange(changed, MsgNoChanges))
}

// Close marks the ticket Closed. Closing a closed ticket is a no-op. A
// version conflict is retried once against a fresh read.
func (s *TicketService) Close(ctx context.Context, id, actor, comment string) (*TicketResult, error) {
	actor = domain.ResolveActor(actor)
	comment = util.CleanText(comment)
	if utf8.RuneCountInString(comment) > domain.MaxEventMessageLength {
		return nil, fieldError("comment", fieldTooLong(domain.MaxEventMessageLength))
	}
	plan := func(_ context.Context, _ repository.UnitOfWork, t *domain.Ticket, _ time.Time) ([]Change, error) {
		if t.Status == domain.TicketStatusClosed {
			return nil, nil
		}
		t.Status = domain.TicketStatusClosed
		return []Change{closedChange(actor, comment)}, nil
	}
	changed, err := s.apply(ctx, id, actor, false, plan)
	if errors.Is(err, repository.ErrConflict) {
		s.logger.Info("close conflicted, retrying once", zap.String("ticket_id", id))
		changed, err = s.apply(ctx, id, actor, false, plan)
	}
	if err != nil {
		return nil, storeError(err, "ticket")
	}
	return s.result(ctx, id, false, noChange(changed, MsgAlreadyClosed))
}

// Reopen moves a closed ticket back to Open. Reopening a ticket that is not
// closed is a no-op.
func (s *TicketService) Reopen(ctx context.Context, id, actor, comment string) (*TicketResult, error) {
	actor = domain.ResolveActor(actor)
	comment = util.CleanText(comment)
	if utf8.RuneCountInString(comment) > domain.MaxEventMessageLength {
		return nil, fieldError("comment", fieldTooLong(domain.MaxEventMessageLength))
	}
	changed, err := s.apply(ctx, id, actor, false, func(_ context.Context, _ repository.UnitOfWork, t *domain.Ticket, _ time.Time) ([]Change, error) {
		if t.Status != domain.TicketStatusClosed {
			return nil, nil
		}
		t.Status = domain.TicketStatusOpen
		return []Change{reopenedChange(actor, comment)}, nil
	})
	if err != nil {
		return nil, storeError(err, "ticket")
	}
	return s.result(ctx, id, false, noChange(changed, MsgNotClosed))
}

// SoftDelete hides the ticket from listings and mutations. Deleting a
// deleted ticket is a no-op.
func (s *TicketService) SoftDelete(ctx context.Context, id, actor, reason string) (*TicketResult, error) {
	bad := problems{}
	actor = util.CleanText(actor)
	if actor == "" {
		bad.add("by", "by is required")
	}
	bad.check("by", actor, domain.MaxActorLength)
	reason = util.CleanText(reason)
	if reason == "" {
		bad.add("reason", "reason is required")
	}
	bad.check("reason", reason, domain.MaxDeleteReasonLength)
	if err := bad.err("invalid delete request"); err != nil {
		return nil, err
	}

	changed, err := s.apply(ctx, id, actor, true, func(_ context.Context, _ repository.UnitOfWork, t *domain.Ticket, at time.Time) ([]Change, error) {
		if t.IsDeleted {
			return nil, nil
		}
		t.IsDeleted = true
		t.DeletedAt = &at
		t.DeletedBy = &actor
		t.DeleteReason = &reason
		return []Change{deletedChange(actor, reason)}, nil
	})
	if err != nil {
		return nil, storeError(err, "ticket")
	}
	return s.result(ctx, id, true, noChange(changed, MsgAlreadyDeleted))
}

// AddComment appends a CommentAdded event and bumps the ticket. Comments
// have no activity entry.
func (s *TicketService) AddComment(ctx context.Context, id, actor, text string) (*TicketResult, error) {
	text = util.CleanText(text)
	if text == "" {
		return nil, fieldError("comment", "comment is required")
	}
	if utf8.RuneCountInString(text) > domain.MaxEventMessageLength {
		return nil, fieldError("comment", fieldTooLong(domain.MaxEventMessageLength))
	}
	_, err := s.apply(ctx, id, actor, false, func(context.Context, repository.UnitOfWork, *domain.Ticket, time.Time) ([]Change, error) {
		return []Change{commentChange(text)}, nil
	})
	if err != nil {
		return nil, storeError(err, "ticket")
	}
	return s.result(ctx, id, false, "")
}

// List returns one page of live tickets matching filter.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter, sort repository.Sort, page repository.Page) (*TicketPage, error) {
	return s.search(ctx, repository.TicketQuery{Predicates: filter.Predicates(), Sort: sort, Page: page})
}

// ListDeleted returns one page of the deleted history.
func (s *TicketService) ListDeleted(ctx context.Context, filter repository.DeletedTicketFilter, sort repository.Sort, page repository.Page) (*TicketPage, error) {
	return s.search(ctx, repository.TicketQuery{Predicates: filter.Predicates(), Sort: sort, Page: page})
}

func (s *TicketService) search(ctx context.Context, q repository.TicketQuery) (*TicketPage, error) {
	items, total, err := s.store.Repos().Tickets().Search(ctx, q)
	if err != nil {
		s.logger.Error("ticket search failed", zap.Error(err))
		return nil, storeError(err, "ticket")
	}
	if items == nil {
		items = []domain.Ticket{}
	}
	return &TicketPage{Items: items, Total: total, Page: q.Page.Number, PageSize: q.Page.Size}, nil
}

// mutation inspects and edits a loaded ticket and returns the audited
// changes. at is the timestamp the ticket will be stamped with.
type mutation func(ctx context.Context, uow repository.UnitOfWork, t *domain.Ticket, at time.Time) ([]Change, error)

// apply runs plan against the stored ticket in one transaction. When plan
// reports changes the ticket is saved with a version check and the changes
// are audited; otherwise nothing is written. It reports whether anything
// changed and returns repository errors unwrapped.
func (s *TicketService) apply(ctx context.Context, id, actor string, includeDeleted bool, plan mutation) (bool, error) {
	if !validID(id) {
		return false, notFound("ticket", id)
	}
	actor = domain.ResolveActor(actor)
	var written []domain.TicketEvent
	err := s.store.WithTx(ctx, func(uow repository.UnitOfWork) error {
		t, err := uow.Tickets().GetByID(ctx, id, includeDeleted)
		if err != nil {
			return err
		}
		at := s.clock.after(t.UpdatedAt)
		changes, err := plan(ctx, uow, t, at)
		if err != nil || len(changes) == 0 {
			return err
		}
		t.UpdatedAt = at
		if err := uow.Tickets().Update(ctx, t); err != nil {
			return err
		}
		written, err = s.audit.Record(ctx, uow, t.ID, actor, at, changes...)
		return err
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrConflict) && !util.IsCode(err, "VALIDATION_FAILED") {
			s.logger.Error("ticket mutation failed", zap.String("ticket_id", id), zap.Error(err))
		}
		return false, err
	}
	s.events.publish(ctx, written)
	return len(written) > 0, nil
}

// reprioritize sets the priority and re-resolves its SLA target.
func (s *TicketService) reprioritize(ctx context.Context, uow repository.UnitOfWork, t *domain.Ticket, p domain.TicketPriority, actor string) (Change, error) {
	hours, err := s.sla.resolve(ctx, uow, p)
	if err != nil {
		return Change{}, err
	}
	ch := priorityChange(t.Priority, p, t.SLAHours, hours, actor)
	t.Priority = p
	t.SLAHours = hours
	return ch, nil
}

func noChange(changed bool, message string) string {
	if changed {
		return ""
	}
	return message
}

func (s *TicketService) result(ctx context.Context, id string, includeDeleted bool, message string) (*TicketResult, error) {
	detail, err := s.detail(ctx, id, includeDeleted)
	if err != nil {
		return nil, err
	}
	return &TicketResult{Detail: detail, Message: message}, nil
}

func (s *TicketService) detail(ctx context.Context, id string, includeDeleted bool) (*domain.TicketDetail, error) {
	repos := s.store.Repos()
	t, err := repos.Tickets().GetByID(ctx, id, includeDeleted)
	if err != nil {
		return nil, storeError(err, "ticket")
	}
	activities, err := repos.Activities().ListByTicket(ctx, id)
	if err != nil {
		return nil, storeError(err, "ticket activity")
	}
	comments, err := repos.Events().ListByTicket(ctx, id, domain.EventCommentAdded)
	if err != nil {
		return nil, storeError(err, "ticket event")
	}
	if activities == nil {
		activities = []domain.TicketActivity{}
	}
	if comments == nil {
		comments = []domain.TicketEvent{}
	}
	return &domain.TicketDetail{Ticket: *t, Activities: activities, Comments: comments}, nil
}
