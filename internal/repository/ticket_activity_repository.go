package repository

import (
	"context"

	"github.com/servicedesk/ticket-service/internal/domain"
)

type ticketActivityRepository struct {
	db DBTX
}

// NewTicketActivityRepository creates the narrative audit log repository.
func NewTicketActivityRepository(db DBTX) TicketActivityRepository {
	return &ticketActivityRepository{db: db}
}

func (r *ticketActivityRepository) Append(ctx context.Context, activity *domain.TicketActivity) error {
	const query = `
        INSERT INTO ticket_activities (id, ticket_id, action, message, created_by, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query,
		activity.ID,
		activity.TicketID,
		activity.Action,
		activity.Message,
		activity.By,
		activity.CreatedAt,
	)
	return mapError(err)
}

func (r *ticketActivityRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketActivity, error) {
	const query = `
        SELECT id, ticket_id, action, message, created_by, created_at
        FROM ticket_activities WHERE ticket_id=$1
        ORDER BY created_at DESC, seq DESC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []domain.TicketActivity
	for rows.Next() {
		var a domain.TicketActivity
		if err := rows.Scan(&a.ID, &a.TicketID, &a.Action, &a.Message, &a.By, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.CreatedAt = a.CreatedAt.UTC()
		result = append(result, a)
	}
	return result, rows.Err()
}
