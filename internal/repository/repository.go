package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/servicedesk/ticket-service/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a compare-and-swap on a version fails.
	ErrConflict = errors.New("version conflict")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes every mutable field when ticket.Version still matches the
	// stored row and increments ticket.Version. It returns ErrConflict when
	// the row moved and ErrNotFound when it is gone.
	Update(ctx context.Context, ticket *domain.Ticket) error
	// Touch bumps updated_at past its current value and increments the version.
	Touch(ctx context.Context, id string, at time.Time) error
	GetByID(ctx context.Context, id string, includeDeleted bool) (*domain.Ticket, error)
	Search(ctx context.Context, query TicketQuery) ([]domain.Ticket, int, error)
}

// TicketEventRepository stores the raw audit log.
type TicketEventRepository interface {
	Append(ctx context.Context, event *domain.TicketEvent) error
	// ListByTicket returns events newest first, optionally limited to one type.
	ListByTicket(ctx context.Context, ticketID, eventType string) ([]domain.TicketEvent, error)
}

// TicketActivityRepository stores the narrative audit log.
type TicketActivityRepository interface {
	Append(ctx context.Context, activity *domain.TicketActivity) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketActivity, error)
}

// EvidenceRepository persists evidence metadata.
type EvidenceRepository interface {
	Create(ctx context.Context, evidence *domain.TicketEvidence) error
	GetByID(ctx context.Context, id string) (*domain.TicketEvidence, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEvidence, error)
	ListAll(ctx context.Context) ([]domain.TicketEvidence, error)
	ExistsByStoragePath(ctx context.Context, path string) (bool, error)
	CountByTicket(ctx context.Context, ticketID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// SLARuleRepository persists per-priority overrides.
type SLARuleRepository interface {
	Get(ctx context.Context, priority domain.TicketPriority) (*domain.SLARule, error)
	List(ctx context.Context) ([]domain.SLARule, error)
	Upsert(ctx context.Context, rule *domain.SLARule) error
}

// UserRepository persists operator accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByLogin matches a lowercased username or email.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
}

// UnitOfWork groups repositories sharing one connection or transaction.
type UnitOfWork interface {
	Tickets() TicketRepository
	Events() TicketEventRepository
	Activities() TicketActivityRepository
	Evidence() EvidenceRepository
	SLARules() SLARuleRepository
	Users() UserRepository
}

// Store hands out repositories and runs transactional units of work.
type Store interface {
	// Repos returns repositories bound outside of any transaction.
	Repos() UnitOfWork
	// WithTx commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(UnitOfWork) error) error
}
