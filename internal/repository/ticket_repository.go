package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/servicedesk/ticket-service/internal/domain"
)

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, title, description, status, priority, category, type, sla_hours,
               created_by, assigned_to, created_at, updated_at, is_deleted, deleted_at,
               deleted_by, delete_reason, version`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, title, description, status, priority, category, type, sla_hours,
            created_by, assigned_to, created_at, updated_at, is_deleted, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,FALSE,1)`
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Status.Ordinal(),
		ticket.Priority.Ordinal(),
		ticket.Category.Ordinal(),
		ticket.Type.Ordinal(),
		ticket.SLAHours,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	ticket.Version = 1
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, category=$5, type=$6,
            sla_hours=$7, assigned_to=$8, updated_at=$9, is_deleted=$10, deleted_at=$11,
            deleted_by=$12, delete_reason=$13, version=version+1
        WHERE id=$14 AND version=$15`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status.Ordinal(),
		ticket.Priority.Ordinal(),
		ticket.Category.Ordinal(),
		ticket.Type.Ordinal(),
		ticket.SLAHours,
		ticket.AssignedTo,
		ticket.UpdatedAt,
		ticket.IsDeleted,
		ticket.DeletedAt,
		ticket.DeletedBy,
		ticket.DeleteReason,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrConflict(ctx, ticket.ID)
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return mapError(err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *ticketRepository) Touch(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE tickets SET updated_at=GREATEST(updated_at + INTERVAL '1 microsecond', $2), version=version+1
        WHERE id=$1`
	cmd, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string, includeDeleted bool) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return ticket, nil
}

func (r *ticketRepository) Search(ctx context.Context, q TicketQuery) ([]domain.Ticket, int, error) {
	where, args := q.Where()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		ticketColumns, where, q.Sort.SQL(), q.Page.Size, q.Page.Offset())
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var status, priority, category, typeOrd int
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&status,
		&priority,
		&category,
		&typeOrd,
		&ticket.SLAHours,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.IsDeleted,
		&ticket.DeletedAt,
		&ticket.DeletedBy,
		&ticket.DeleteReason,
		&ticket.Version,
	); err != nil {
		return nil, err
	}
	if err := decodeEnums(&ticket, status, priority, category, typeOrd); err != nil {
		return nil, err
	}
	ticket.CreatedAt = ticket.CreatedAt.UTC()
	ticket.UpdatedAt = ticket.UpdatedAt.UTC()
	if ticket.DeletedAt != nil {
		deletedAt := ticket.DeletedAt.UTC()
		ticket.DeletedAt = &deletedAt
	}
	return &ticket, nil
}

func decodeEnums(ticket *domain.Ticket, status, priority, category, typeOrd int) error {
	var err error
	if ticket.Status, err = domain.StatusFromOrdinal(status); err != nil {
		return err
	}
	if ticket.Priority, err = domain.PriorityFromOrdinal(priority); err != nil {
		return err
	}
	if ticket.Category, err = domain.CategoryFromOrdinal(category); err != nil {
		return err
	}
	if ticket.Type, err = domain.TypeFromOrdinal(typeOrd); err != nil {
		return err
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
